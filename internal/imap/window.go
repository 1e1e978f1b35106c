package imap

import "time"

// backfillSince computes the backfill cutoff: only messages dated on or
// after now minus the window are requested from the server.
func backfillSince(now time.Time, window time.Duration) time.Time {
	return now.Add(-window)
}

// fetchWindow computes the sequence range to fetch after a new-mail
// notification: n new messages in a mailbox now holding total messages live
// at [total-n+1, total], clamped to a minimum of 1.
func fetchWindow(total, n uint32) (from, to uint32) {
	if total == 0 {
		return 1, 1
	}
	if n >= total {
		return 1, total
	}
	return total - n + 1, total
}
