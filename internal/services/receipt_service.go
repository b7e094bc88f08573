package services

import (
	"bytes"
	"database/sql"
	"fmt"

	"github.com/phpdave11/gofpdf"

	"backend/internal/domain"
	"backend/internal/domain/models"
	"backend/internal/repositories"
	"backend/internal/utils"
)

// ReceiptService renders a PDF receipt for a booking.
type ReceiptService struct {
	BookingRepo repositories.BookingRepository
	UserRepo    repositories.UserRepository
	RequestID   string
	Loader      func(int64) (receiptData, error)
}

type receiptData struct {
	BookingID    int64
	CustomerName string
	Pickup       string
	Stops        []string
	Dropoff      string
	PickupAt     string
	DistanceKm   float64
	DurationMin  float64
	Price        string
	Status       string
	DriverName   string
}

// Generate returns PDF bytes and a suggested filename. Receipts exist only
// for confirmed or completed bookings.
func (s ReceiptService) Generate(bookingID int64) ([]byte, string, error) {
	data, err := s.loadReceiptData(bookingID)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "receipt", "generate", fmt.Sprintf("booking_id=%d", bookingID))
	return buildReceiptPDF(data)
}

func (s ReceiptService) loadReceiptData(bookingID int64) (receiptData, error) {
	if s.Loader != nil {
		return s.Loader(bookingID)
	}

	b, err := s.BookingRepo.GetByID(bookingID)
	if err == sql.ErrNoRows {
		return receiptData{}, domain.NotFoundError{Resource: "booking"}
	}
	if err != nil {
		return receiptData{}, domain.InternalError{Msg: "booking lookup failed", Err: err}
	}
	if b.Status != models.StatusConfirmed && b.Status != models.StatusCompleted {
		return receiptData{}, domain.ValidationError{Msg: "receipt is only available for confirmed or completed bookings"}
	}

	out := receiptData{
		BookingID:   b.ID,
		Pickup:      b.PickupAddress,
		Dropoff:     b.DropoffAddress,
		PickupAt:    utils.FormatDateTime(b.PickupAt),
		DistanceKm:  b.DistanceKm,
		DurationMin: b.DurationMin,
		Price:       utils.FormatSEK(b.PriceOre),
		Status:      string(b.Status),
	}
	if b.Stop1Address != nil {
		out.Stops = append(out.Stops, *b.Stop1Address)
	}
	if b.Stop2Address != nil {
		out.Stops = append(out.Stops, *b.Stop2Address)
	}

	switch {
	case b.UserID != nil:
		if u, err := s.UserRepo.GetByID(*b.UserID); err == nil {
			out.CustomerName = u.FirstName + " " + u.LastName
		}
	case b.GuestFirstName != nil:
		out.CustomerName = *b.GuestFirstName
		if b.GuestLastName != nil {
			out.CustomerName += " " + *b.GuestLastName
		}
	}

	if b.DriverID != nil {
		var name string
		err := s.BookingRepo.DB.QueryRow(`
			SELECT CONCAT(u.first_name, ' ', u.last_name)
			FROM drivers d JOIN users u ON u.id = d.user_id
			WHERE d.id=? LIMIT 1`, *b.DriverID).Scan(&name)
		if err == nil {
			out.DriverName = name
		}
	}
	return out, nil
}

func buildReceiptPDF(d receiptData) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Receipt", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "TAXI RECEIPT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Booking      : #%d", d.BookingID),
		fmt.Sprintf("Customer     : %s", safe(d.CustomerName)),
		fmt.Sprintf("Pickup       : %s", safe(d.Pickup)),
	}
	for i, stop := range d.Stops {
		lines = append(lines, fmt.Sprintf("Stop %d       : %s", i+1, stop))
	}
	lines = append(lines,
		fmt.Sprintf("Dropoff      : %s", safe(d.Dropoff)),
		fmt.Sprintf("Pickup time  : %s", safe(d.PickupAt)),
		fmt.Sprintf("Distance     : %.1f km", d.DistanceKm),
		fmt.Sprintf("Duration     : %.0f min", d.DurationMin),
		fmt.Sprintf("Driver       : %s", safe(d.DriverName)),
		fmt.Sprintf("Status       : %s", safe(d.Status)),
	)
	for _, line := range lines {
		pdf.Cell(0, 8, line)
		pdf.Ln(8)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, fmt.Sprintf("Total: %s kr", d.Price))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", domain.InternalError{Msg: "could not render receipt", Err: err}
	}
	filename := fmt.Sprintf("receipt-booking-%d.pdf", d.BookingID)
	return buf.Bytes(), filename, nil
}

func safe(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
