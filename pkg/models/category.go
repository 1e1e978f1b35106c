package models

import "fmt"

// Category is the business outcome attached to every processed message.
type Category string

const (
	CategoryInterested    Category = "Interested"
	CategoryMeetingBooked Category = "Meeting Booked"
	CategoryNotInterested Category = "Not Interested"
	CategoryOutOfOffice   Category = "Out of Office"
	CategorySpam          Category = "Spam"
	CategoryPromotional   Category = "Promotional"
	CategoryUncategorized Category = "Uncategorized"
)

// Categories lists every valid category value.
var Categories = []Category{
	CategoryInterested,
	CategoryMeetingBooked,
	CategoryNotInterested,
	CategoryOutOfOffice,
	CategorySpam,
	CategoryPromotional,
	CategoryUncategorized,
}

// ParseCategory validates a raw category string, e.g. from a query parameter.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}
