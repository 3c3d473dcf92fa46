package services

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"log"
	"time"

	config "github.com/campusride/transport_portal/configs"
	"github.com/campusride/transport_portal/fees"
	"github.com/campusride/transport_portal/models"
	"github.com/campusride/transport_portal/utils"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

//go:embed templates/receipt.html
var receiptTemplate string

var receiptTmpl = template.Must(template.New("receipt").Parse(receiptTemplate))

var receiptColorHex = map[string]string{
	"green":  "#2e7d32",
	"orange": "#ef6c00",
	"purple": "#6a1b9a",
	"blue":   "#1565c0",
	"yellow": "#f9a825",
	"pink":   "#d81b60",
	"white":  "#e0e0e0",
}

// ReceiptService renders payment receipts to PDF and stores them on Cloudinary.
// RenderPDF and Upload default to chromedp and Cloudinary.
type ReceiptService struct {
	Store     PaymentStore
	RenderPDF func(ctx context.Context, html string) ([]byte, error)
	Upload    func(ctx context.Context, pdf []byte, publicID string) (string, error)
	Now       func() time.Time
}

func NewReceiptService(store PaymentStore) *ReceiptService {
	return &ReceiptService{
		Store:     store,
		RenderPDF: generatePDFFromHTML,
		Upload:    uploadToCloudinary,
		Now:       time.Now,
	}
}

// Receipt returns the receipt row for a payment, generating the PDF on first
// request. Payments recorded before receipts existed get a number here.
func (s *ReceiptService) Receipt(ctx context.Context, paymentID uuid.UUID) (*models.PaymentReceipt, error) {
	payment, err := s.Store.FindSemesterPayment(ctx, paymentID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}

	receipt, err := s.Store.FindReceipt(ctx, paymentID)
	switch {
	case errors.Is(err, ErrNotFound):
		number, err := utils.GenerateUniqueReceiptNumber(payment.ValidFrom.Year(), func(n string) (bool, error) {
			return s.Store.ReceiptNumberExists(ctx, n)
		})
		if err != nil {
			return nil, err
		}
		receipt = &models.PaymentReceipt{
			SemesterPaymentID: payment.ID,
			StudentID:         payment.StudentID,
			ReceiptNumber:     number,
			ReceiptColor:      payment.ReceiptColor,
		}
		if err := s.Store.CreateReceipt(ctx, receipt); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	if receipt.ReceiptURL != nil && *receipt.ReceiptURL != "" {
		return receipt, nil
	}

	html, err := s.renderHTML(payment, receipt)
	if err != nil {
		return nil, errors.Wrap(err, "render receipt html")
	}
	pdf, err := s.RenderPDF(ctx, html)
	if err != nil {
		return nil, errors.Wrap(err, "render receipt pdf")
	}
	url, err := s.Upload(ctx, pdf, fmt.Sprintf("receipts/%s", receipt.ReceiptNumber))
	if err != nil {
		return nil, errors.Wrap(err, "upload receipt")
	}

	receipt.ReceiptURL = &url
	if err := s.Store.SaveReceipt(ctx, receipt); err != nil {
		return nil, err
	}
	log.Printf("✅ Generated receipt %s for payment %s", receipt.ReceiptNumber, payment.ID)
	return receipt, nil
}

func (s *ReceiptService) renderHTML(p *models.SemesterPayment, r *models.PaymentReceipt) (string, error) {
	data := struct {
		ReceiptNumber string
		IssuedOn      string
		ColorHex      string
		StudentName   string
		RollNumber    string
		StopName      string
		Coverage      string
		ValidFrom     string
		ValidUntil    string
		PaymentMethod string
		TransactionID string
		Status        string
		Amount        float64
	}{
		ReceiptNumber: r.ReceiptNumber,
		IssuedOn:      s.Now().Format("January 2, 2006"),
		ColorHex:      receiptColorHex[r.ReceiptColor],
		StopName:      p.StopName,
		Coverage:      coverageText(p),
		ValidFrom:     p.ValidFrom.Format("02 Jan 2006"),
		ValidUntil:    p.ValidUntil.Format("02 Jan 2006"),
		PaymentMethod: p.PaymentMethod,
		Status:        p.PaymentStatus,
		Amount:        p.AmountPaid,
	}
	if p.Student != nil {
		data.StudentName = p.Student.StudentName
		if p.Student.RollNumber != nil {
			data.RollNumber = *p.Student.RollNumber
		}
	}
	if p.TransactionID != nil {
		data.TransactionID = *p.TransactionID
	}

	var buf bytes.Buffer
	if err := receiptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func coverageText(p *models.SemesterPayment) string {
	switch p.PaymentType {
	case fees.TypeCustom:
		return "Part payment " + p.AcademicYear
	case fees.TypeOutstanding:
		return "Outstanding balance " + p.AcademicYear
	}
	return fees.GetTermDescription(p.CoversTerms, p.AcademicYear)
}

func generatePDFFromHTML(ctx context.Context, htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "chromedp print to pdf")
	}
	return pdfBuffer, nil
}

func uploadToCloudinary(ctx context.Context, fileBytes []byte, publicID string) (string, error) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	res, err := cld.Upload.Upload(ctx, bytes.NewReader(fileBytes), uploader.UploadParams{
		PublicID:     publicID,
		Folder:       "transport_receipts",
		ResourceType: "raw",
	})
	if err != nil {
		return "", errors.Wrapf(err, "cloudinary upload %s", publicID)
	}
	return res.SecureURL, nil
}
