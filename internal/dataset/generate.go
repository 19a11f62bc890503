package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// GenerateOptions control the synthetic table.
type GenerateOptions struct {
	Rows int
	// Seed makes output reproducible; 0 picks a random seed.
	Seed uint64
	// Now anchors birth dates; zero means time.Now.
	Now time.Time
}

// generatedColumns mixes every sensitivity level so a classification run has
// something to find in each bucket.
var generatedColumns = []string{
	"user_id", "first_name", "last_name", "email_address", "phone_number",
	"street_address", "date_of_birth", "credit_card_number_masked", "revenue_usd",
	"employee_id", "department", "product_code", "ip_address", "internal_project_id",
	"customer_segment", "is_active_customer", "transaction_id", "bank_account_last_4",
	"social_security_number_masked",
}

// Generate builds a fake customer table with n rows and extracts its metadata.
func Generate(opts GenerateOptions, extract Options) (*Dataset, error) {
	if opts.Rows < 1 {
		return nil, fmt.Errorf("dataset: rows must be positive, got %d", opts.Rows)
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	f := gofakeit.New(opts.Seed)

	t := &Table{Header: append([]string(nil), generatedColumns...)}
	for i := 0; i < opts.Rows; i++ {
		card := f.CreditCardNumber(nil)
		if len(card) > 4 {
			card = card[len(card)-4:]
		}
		dob := f.DateRange(now.AddDate(-90, 0, 0), now.AddDate(-18, 0, 0))
		revenue := math.Round(f.Float64Range(1000, 100000)*100) / 100

		t.Rows = append(t.Rows, []string{
			strconv.Itoa(i + 1),
			f.FirstName(),
			f.LastName(),
			f.Email(),
			f.Phone(),
			f.Address().Address,
			dob.Format("2006-01-02"),
			strings.Repeat("*", 16-len(card)) + card,
			strconv.FormatFloat(revenue, 'f', -1, 64),
			fmt.Sprintf("EMP-%d", 1000+i),
			f.RandomString([]string{"Sales", "Marketing", "Engineering", "HR", "Finance"}),
			fmt.Sprintf("PROD-%d", f.IntRange(100, 999)),
			f.IPv4Address(),
			fmt.Sprintf("INTPROJ-%d", f.IntRange(1, 5)),
			f.RandomString([]string{"Gold", "Silver", "Bronze"}),
			boolCell(f.Bool()),
			f.UUID(),
			strconv.Itoa(f.IntRange(1000, 9999)),
			fmt.Sprintf("***-**-%d", f.IntRange(1000, 9999)),
		})
	}
	cols := Extract(t, extract)
	if len(cols) == 0 {
		return nil, ErrNoColumns
	}
	return &Dataset{
		Filename: fmt.Sprintf("fake_data_%d_rows.csv", opts.Rows),
		Kind:     KindGenerated,
		Table:    t,
		Columns:  cols,
	}, nil
}

func boolCell(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// WriteCSV writes the table with its header.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}
