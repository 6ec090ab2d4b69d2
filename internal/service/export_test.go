package service

import "time"

// SetClock replaces the clock used for date defaults and overdue checks
func (s *QuoteService) SetClock(now func() time.Time)   { s.now = now }
func (s *InvoiceService) SetClock(now func() time.Time) { s.now = now }
