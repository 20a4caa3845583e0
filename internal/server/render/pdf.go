package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	server "github.com/du-events/convite/internal/server/domain"
	"github.com/du-events/convite/internal/server/service"
)

// PDF renders the A4 invite card: event header, guest and student block,
// event details and a centered QR code carrying the token payload.
type PDF struct{}

func (p *PDF) Render(ctx context.Context, req service.RenderRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(server.QRPayload(req.Token), qrcode.High, 400)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr: %w", err)
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(15, 15, 15)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(0, 10, req.Meta.Title, "", 1, "C", false, 0, "")
	doc.Ln(4)

	doc.SetFont("Helvetica", "", 12)
	doc.CellFormat(0, 7, "Guest: "+req.GuestName, "", 1, "L", false, 0, "")
	doc.CellFormat(0, 7, "Student: "+req.StudentName, "", 1, "L", false, 0, "")
	if req.MatricNo != "" {
		doc.CellFormat(0, 7, "Matric No: "+req.MatricNo, "", 1, "L", false, 0, "")
	}
	doc.Ln(2)
	doc.CellFormat(0, 7, fmt.Sprintf("Date: %s   Time: %s", req.Meta.Date, req.Meta.Time), "", 1, "L", false, 0, "")
	doc.CellFormat(0, 7, "Venue: "+req.Meta.Venue, "", 1, "L", false, 0, "")
	if req.Meta.Notes != "" {
		doc.Ln(2)
		doc.SetFont("Helvetica", "", 10)
		doc.SetTextColor(110, 110, 110)
		doc.MultiCell(0, 5, req.Meta.Notes, "", "L", false)
		doc.SetTextColor(0, 0, 0)
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	doc.RegisterImageOptionsReader("qr", opts, bytes.NewReader(png))
	const qrSize = 80.0
	pageW, _ := doc.GetPageSize()
	doc.ImageOptions("qr", (pageW-qrSize)/2, doc.GetY()+8, qrSize, qrSize, false, opts, 0, "")
	doc.SetY(doc.GetY() + 8 + qrSize + 6)

	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(110, 110, 110)
	doc.CellFormat(0, 6, "Non-transferable - Single entry - Have ID ready", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
