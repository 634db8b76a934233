// Package service provides the business logic layer (use cases).
package service

import "time"

// monthDay builds a date on the given day of the month, clamping the day to
// the month's length. February 31 becomes February 28 (or 29 in leap years).
func monthDay(year int, month time.Month, day int) time.Time {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// InitialDueDate computes the first due date for a billing day relative to
// today. If the billing day in the current month is already past (strictly
// before today, date-only comparison), the due date lands next month.
func InitialDueDate(today time.Time, billingDay int) time.Time {
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	due := monthDay(today.Year(), today.Month(), billingDay)
	if due.Before(today) {
		due = monthDay(today.Year(), today.Month()+1, billingDay)
	}
	return due
}

// NextDueDate advances a due date one calendar month, re-clamping to the
// billing day so a clamped date recovers its day when the month allows.
// January 31 -> February 28 -> March 31.
func NextDueDate(current time.Time, billingDay int) time.Time {
	return monthDay(current.Year(), current.Month()+1, billingDay)
}
