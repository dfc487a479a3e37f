package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ensure/internal/engine"
	"ensure/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by pgxpool.Pool and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries implements the per-type asset registries over Postgres
type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

// wrapStoreErr maps driver failures onto the engine's error kinds
func wrapStoreErr(err error, kind, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %q: %w", kind, id, engine.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s %q: %w", kind, id, engine.ErrDuplicateKey)
		case "23503":
			return fmt.Errorf("%s %q: %w", kind, id, engine.ErrReferenced)
		}
	}
	return err
}

func notFoundIfNoRows(tag pgconn.CommandTag, kind, id string) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %q: %w", kind, id, engine.ErrNotFound)
	}
	return nil
}

// Product registry

func (q *Queries) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	var createdAt time.Time
	err := q.db.QueryRow(ctx,
		"SELECT id, premium, cover, provider_id, created_at FROM products WHERE id = $1",
		id,
	).Scan(&p.ID, &p.Premium, &p.Cover, &p.ProviderID, &createdAt)
	if err != nil {
		return nil, wrapStoreErr(err, "product", id)
	}
	p.CreatedAt = createdAt.Format("2006-01-02T15:04:05Z07:00")

	p.Buyers, err = q.scanIDs(ctx,
		"SELECT patient_id FROM product_buyers WHERE product_id = $1 ORDER BY purchased_at",
		id,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (q *Queries) AddProduct(ctx context.Context, p *model.Product) error {
	_, err := q.db.Exec(ctx,
		"INSERT INTO products (id, premium, cover, provider_id) VALUES ($1, $2, $3, $4)",
		p.ID, p.Premium, p.Cover, p.ProviderID,
	)
	if err != nil {
		return wrapStoreErr(err, "product", p.ID)
	}
	return nil
}

func (q *Queries) UpdateProduct(ctx context.Context, p *model.Product) error {
	tag, err := q.db.Exec(ctx,
		"UPDATE products SET premium = $2, cover = $3, provider_id = $4 WHERE id = $1",
		p.ID, p.Premium, p.Cover, p.ProviderID,
	)
	if err != nil {
		return wrapStoreErr(err, "product", p.ID)
	}
	if err := notFoundIfNoRows(tag, "product", p.ID); err != nil {
		return err
	}
	return q.syncBuyers(ctx, p.ID, p.Buyers)
}

func (q *Queries) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := q.db.Query(ctx,
		"SELECT id, premium, cover, provider_id, created_at FROM products ORDER BY created_at",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]model.Product, 0)
	for rows.Next() {
		var p model.Product
		var createdAt time.Time
		if err := rows.Scan(&p.ID, &p.Premium, &p.Cover, &p.ProviderID, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt = createdAt.Format("2006-01-02T15:04:05Z07:00")
		products = append(products, p)
	}
	return products, rows.Err()
}

func (q *Queries) DeleteProduct(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return wrapStoreErr(err, "product", id)
	}
	return notFoundIfNoRows(tag, "product", id)
}

// syncBuyers upserts the buyer links listed on the product; links are only
// ever appended in this workflow
func (q *Queries) syncBuyers(ctx context.Context, productID string, buyers []string) error {
	for _, patientID := range buyers {
		_, err := q.db.Exec(ctx,
			"INSERT INTO product_buyers (product_id, patient_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			productID, patientID,
		)
		if err != nil {
			return wrapStoreErr(err, "product buyer", productID)
		}
	}
	return nil
}

func (q *Queries) scanIDs(ctx context.Context, sql string, args ...any) ([]string, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Patient registry

func (q *Queries) GetPatient(ctx context.Context, id string) (*model.Patient, error) {
	var p model.Patient
	err := q.db.QueryRow(ctx,
		"SELECT id, email, name, balance FROM patients WHERE id = $1",
		id,
	).Scan(&p.ID, &p.Email, &p.Name, &p.Balance)
	if err != nil {
		return nil, wrapStoreErr(err, "patient", id)
	}

	p.Products, err = q.scanIDs(ctx,
		"SELECT product_id FROM product_buyers WHERE patient_id = $1 ORDER BY purchased_at",
		id,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (q *Queries) AddPatient(ctx context.Context, p *model.Patient) error {
	_, err := q.db.Exec(ctx,
		"INSERT INTO patients (id, email, name, balance) VALUES ($1, $2, $3, $4)",
		p.ID, p.Email, p.Name, p.Balance,
	)
	if err != nil {
		return wrapStoreErr(err, "patient", p.ID)
	}
	return nil
}

func (q *Queries) UpdatePatient(ctx context.Context, p *model.Patient) error {
	tag, err := q.db.Exec(ctx,
		"UPDATE patients SET email = $2, name = $3, balance = $4 WHERE id = $1",
		p.ID, p.Email, p.Name, p.Balance,
	)
	if err != nil {
		return wrapStoreErr(err, "patient", p.ID)
	}
	if err := notFoundIfNoRows(tag, "patient", p.ID); err != nil {
		return err
	}
	for _, productID := range p.Products {
		_, err := q.db.Exec(ctx,
			"INSERT INTO product_buyers (product_id, patient_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			productID, p.ID,
		)
		if err != nil {
			return wrapStoreErr(err, "product buyer", productID)
		}
	}
	return nil
}

// Doctor registry

func (q *Queries) GetDoctor(ctx context.Context, id string) (*model.Doctor, error) {
	var d model.Doctor
	err := q.db.QueryRow(ctx,
		"SELECT id, email, name FROM doctors WHERE id = $1",
		id,
	).Scan(&d.ID, &d.Email, &d.Name)
	if err != nil {
		return nil, wrapStoreErr(err, "doctor", id)
	}
	return &d, nil
}

func (q *Queries) AddDoctor(ctx context.Context, d *model.Doctor) error {
	_, err := q.db.Exec(ctx,
		"INSERT INTO doctors (id, email, name) VALUES ($1, $2, $3)",
		d.ID, d.Email, d.Name,
	)
	if err != nil {
		return wrapStoreErr(err, "doctor", d.ID)
	}
	return nil
}

// InsuranceProvider registry; the product list is derived from the
// provider_id column on products

func (q *Queries) GetProvider(ctx context.Context, id string) (*model.InsuranceProvider, error) {
	var p model.InsuranceProvider
	err := q.db.QueryRow(ctx,
		"SELECT id, email, name FROM providers WHERE id = $1",
		id,
	).Scan(&p.ID, &p.Email, &p.Name)
	if err != nil {
		return nil, wrapStoreErr(err, "provider", id)
	}

	p.Products, err = q.scanIDs(ctx,
		"SELECT id FROM products WHERE provider_id = $1 ORDER BY created_at",
		id,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (q *Queries) AddProvider(ctx context.Context, p *model.InsuranceProvider) error {
	_, err := q.db.Exec(ctx,
		"INSERT INTO providers (id, email, name) VALUES ($1, $2, $3)",
		p.ID, p.Email, p.Name,
	)
	if err != nil {
		return wrapStoreErr(err, "provider", p.ID)
	}
	return nil
}

func (q *Queries) UpdateProvider(ctx context.Context, p *model.InsuranceProvider) error {
	tag, err := q.db.Exec(ctx,
		"UPDATE providers SET email = $2, name = $3 WHERE id = $1",
		p.ID, p.Email, p.Name,
	)
	if err != nil {
		return wrapStoreErr(err, "provider", p.ID)
	}
	return notFoundIfNoRows(tag, "provider", p.ID)
}

// Prescription registry

func (q *Queries) GetPrescription(ctx context.Context, id string) (*model.Prescription, error) {
	var p model.Prescription
	err := q.db.QueryRow(ctx,
		`SELECT id, doctor_id, patient_id, description, validity_days, valid_until, pstatus
		FROM prescriptions WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.DoctorID, &p.PatientID, &p.Description, &p.ValidityDays, &p.ValidUntil, &p.Status)
	if err != nil {
		return nil, wrapStoreErr(err, "prescription", id)
	}
	return &p, nil
}

func (q *Queries) AddPrescription(ctx context.Context, p *model.Prescription) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO prescriptions (id, doctor_id, patient_id, description, validity_days, valid_until, pstatus)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.DoctorID, p.PatientID, p.Description, p.ValidityDays, p.ValidUntil, p.Status,
	)
	if err != nil {
		return wrapStoreErr(err, "prescription", p.ID)
	}
	return nil
}

func (q *Queries) UpdatePrescription(ctx context.Context, p *model.Prescription) error {
	tag, err := q.db.Exec(ctx,
		"UPDATE prescriptions SET pstatus = $2, valid_until = $3 WHERE id = $1",
		p.ID, p.Status, p.ValidUntil,
	)
	if err != nil {
		return wrapStoreErr(err, "prescription", p.ID)
	}
	return notFoundIfNoRows(tag, "prescription", p.ID)
}

// Bill registry; bills are immutable once created

func (q *Queries) GetBill(ctx context.Context, id string) (*model.Bill, error) {
	var b model.Bill
	err := q.db.QueryRow(ctx,
		"SELECT id, description, patient_id, doctor_id, amount FROM bills WHERE id = $1",
		id,
	).Scan(&b.ID, &b.Description, &b.PatientID, &b.DoctorID, &b.Amount)
	if err != nil {
		return nil, wrapStoreErr(err, "bill", id)
	}
	return &b, nil
}

func (q *Queries) AddBill(ctx context.Context, b *model.Bill) error {
	_, err := q.db.Exec(ctx,
		"INSERT INTO bills (id, description, patient_id, doctor_id, amount) VALUES ($1, $2, $3, $4, $5)",
		b.ID, b.Description, b.PatientID, b.DoctorID, b.Amount,
	)
	if err != nil {
		return wrapStoreErr(err, "bill", b.ID)
	}
	return nil
}

// Claim registry

func (q *Queries) GetClaim(ctx context.Context, id string) (*model.Claim, error) {
	c, err := scanClaim(q.db.QueryRow(ctx,
		`SELECT id, type, prescription_id, bill_id, patient_id, product_id, doctor_id, status, created_at, updated_at
		FROM claims WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, wrapStoreErr(err, "claim", id)
	}
	return c, nil
}

func (q *Queries) AddClaim(ctx context.Context, c *model.Claim) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO claims (id, type, prescription_id, bill_id, patient_id, product_id, doctor_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.Type, c.PrescriptionID, c.BillID, c.PatientID, c.ProductID, c.DoctorID, c.Status,
	)
	if err != nil {
		return wrapStoreErr(err, "claim", c.ID)
	}
	return nil
}

func (q *Queries) UpdateClaim(ctx context.Context, c *model.Claim) error {
	tag, err := q.db.Exec(ctx,
		"UPDATE claims SET status = $2, updated_at = NOW() WHERE id = $1",
		c.ID, c.Status,
	)
	if err != nil {
		return wrapStoreErr(err, "claim", c.ID)
	}
	return notFoundIfNoRows(tag, "claim", c.ID)
}

func (q *Queries) ListClaims(ctx context.Context, filter engine.ClaimFilter) ([]model.Claim, error) {
	sql := `SELECT id, type, prescription_id, bill_id, patient_id, product_id, doctor_id, status, created_at, updated_at
		FROM claims WHERE ($1::text IS NULL OR status = $1)
		AND ($2::text IS NULL OR patient_id = $2)
		AND ($3::text IS NULL OR product_id = $3)
		ORDER BY created_at`

	var status, patientID, productID *string
	if filter.Status != nil {
		s := string(*filter.Status)
		status = &s
	}
	patientID = filter.PatientID
	productID = filter.ProductID

	rows, err := q.db.Query(ctx, sql, status, patientID, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	claims := make([]model.Claim, 0)
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, *c)
	}
	return claims, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (*model.Claim, error) {
	var c model.Claim
	var createdAt, updatedAt time.Time
	err := row.Scan(&c.ID, &c.Type, &c.PrescriptionID, &c.BillID,
		&c.PatientID, &c.ProductID, &c.DoctorID, &c.Status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = createdAt.Format("2006-01-02T15:04:05Z07:00")
	c.UpdatedAt = updatedAt.Format("2006-01-02T15:04:05Z07:00")
	return &c, nil
}

// MedReq registry

func (q *Queries) GetMedReq(ctx context.Context, id string) (*model.MedReq, error) {
	var m model.MedReq
	err := q.db.QueryRow(ctx,
		"SELECT id, prescription_id, claim_id, patient_id, completed_at FROM medreqs WHERE id = $1",
		id,
	).Scan(&m.ID, &m.PrescriptionID, &m.ClaimID, &m.PatientID, &m.CompletedAt)
	if err != nil {
		return nil, wrapStoreErr(err, "medication request", id)
	}
	return &m, nil
}

func (q *Queries) AddMedReq(ctx context.Context, m *model.MedReq) error {
	_, err := q.db.Exec(ctx,
		"INSERT INTO medreqs (id, prescription_id, claim_id, patient_id) VALUES ($1, $2, $3, $4)",
		m.ID, m.PrescriptionID, m.ClaimID, m.PatientID,
	)
	if err != nil {
		return wrapStoreErr(err, "medication request", m.ID)
	}
	return nil
}

func (q *Queries) UpdateMedReq(ctx context.Context, m *model.MedReq) error {
	tag, err := q.db.Exec(ctx,
		"UPDATE medreqs SET completed_at = $2 WHERE id = $1",
		m.ID, m.CompletedAt,
	)
	if err != nil {
		return wrapStoreErr(err, "medication request", m.ID)
	}
	return notFoundIfNoRows(tag, "medication request", m.ID)
}

// Diagnosis registry; diagnoses are write-once

func (q *Queries) GetDiagnosis(ctx context.Context, id string) (*model.Diagnosis, error) {
	var d model.Diagnosis
	err := q.db.QueryRow(ctx,
		"SELECT id, doctor_id, patient_id, description FROM diagnoses WHERE id = $1",
		id,
	).Scan(&d.ID, &d.DoctorID, &d.PatientID, &d.Description)
	if err != nil {
		return nil, wrapStoreErr(err, "diagnosis", id)
	}
	return &d, nil
}

func (q *Queries) AddDiagnosis(ctx context.Context, d *model.Diagnosis) error {
	_, err := q.db.Exec(ctx,
		"INSERT INTO diagnoses (id, doctor_id, patient_id, description) VALUES ($1, $2, $3, $4)",
		d.ID, d.DoctorID, d.PatientID, d.Description,
	)
	if err != nil {
		return wrapStoreErr(err, "diagnosis", d.ID)
	}
	return nil
}
