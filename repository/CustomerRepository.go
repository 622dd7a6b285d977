package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"billingDesk/models"

	"go.uber.org/zap"
)

type CustomerRepository interface {
	GetOrCreateByPhone(ctx context.Context, tx *sql.Tx, c models.InvoiceCustomer) (customerId int64, created bool, err error)
	GetCustomerById(ctx context.Context, id int64) (cModel models.Customer_db, exists bool, err error)
	List(ctx context.Context, limit int) (customers []models.Customer_db, err error)
	Find(ctx context.Context, query string) (customers []models.Customer_db, err error)
	CreateCustomer(ctx context.Context, c models.InvoiceCustomer) (id int64, err error)
}

const customerColumns = "Id, Name, Phone, Email, Address"

type CustomerRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewCustomerRepository(conn *sql.DB, logger *zap.Logger) (CustomerRepository, error) {
	if conn == nil {
		return nil, errors.New("conn must be non-nil")
	}
	err := conn.Ping()
	if err != nil {
		return nil, err
	}
	return &CustomerRepo{
		db:     conn,
		logger: logger,
	}, nil
}

// GetOrCreateByPhone returns the first customer registered under the phone
// number, creating one from the invoice details when there is none. Existing
// customers keep their stored details.
func (c *CustomerRepo) GetOrCreateByPhone(ctx context.Context, tx *sql.Tx, cust models.InvoiceCustomer) (customerId int64, created bool, err error) {
	e := tx.QueryRowContext(ctx, "SELECT Id FROM Customers WHERE Phone = $1 ORDER BY Id LIMIT 1", cust.Phone).Scan(&customerId)
	if e == nil {
		return
	}
	if e != sql.ErrNoRows {
		c.logger.Error("GetOrCreateByPhone[1]", zap.Error(e))
		err = models.ErrServerError
		return
	}
	e = tx.QueryRowContext(ctx, "INSERT INTO Customers (Name, Phone, Email, Address) VALUES ($1, $2, $3, $4) RETURNING Id",
		cust.Name, cust.Phone, cust.Email, cust.Address).Scan(&customerId)
	if e != nil {
		c.logger.Error("GetOrCreateByPhone[2]", zap.Error(e))
		err = models.ErrServerError
		return
	}
	created = true
	return
}

func (c *CustomerRepo) GetCustomerById(ctx context.Context, id int64) (cModel models.Customer_db, exists bool, err error) {
	row := c.db.QueryRowContext(ctx, "SELECT "+customerColumns+" FROM Customers WHERE Id = $1", id)
	err = row.Scan(&cModel.Id, &cModel.Name, &cModel.Phone, &cModel.Email, &cModel.Address)
	if err != nil {
		if err == sql.ErrNoRows {
			err = nil
		} else {
			c.logger.Error("GetCustomerById", zap.Int64("customer_id", id), zap.Error(err))
			err = models.ErrServerError
		}
		return
	}
	exists = true
	return
}

func (c *CustomerRepo) List(ctx context.Context, limit int) (customers []models.Customer_db, err error) {
	return c.query(ctx, "List", "SELECT "+customerColumns+" FROM Customers ORDER BY Id LIMIT $1", limit)
}

// Find matches the query case-insensitively against name or phone. An empty
// query lists every customer.
func (c *CustomerRepo) Find(ctx context.Context, query string) (customers []models.Customer_db, err error) {
	if strings.TrimSpace(query) == "" {
		return c.query(ctx, "Find", "SELECT "+customerColumns+" FROM Customers ORDER BY Id")
	}
	return c.query(ctx, "Find",
		"SELECT "+customerColumns+" FROM Customers WHERE LOWER(Name) LIKE $1 ESCAPE '\\' OR LOWER(Phone) LIKE $1 ESCAPE '\\' ORDER BY Id",
		likePattern(query))
}

func (c *CustomerRepo) CreateCustomer(ctx context.Context, cust models.InvoiceCustomer) (id int64, err error) {
	if !isValidLen(cust.Name, 1, 200) || !isValidString(cust.Name) {
		c.logger.Info("name field is invalid")
		err = models.ErrNotAllowed
		return
	}
	if !isValidLen(cust.Phone, 1, 15) || !isValidString(cust.Phone) {
		c.logger.Info("phone field is invalid")
		err = models.ErrNotAllowed
		return
	}
	if !isValidLen(cust.Email, 0, 254) || strings.ContainsAny(cust.Email, " \t\n") {
		c.logger.Info("email field is invalid")
		err = models.ErrNotAllowed
		return
	}
	email := sql.NullString{String: cust.Email, Valid: cust.Email != ""}
	address := sql.NullString{String: cust.Address, Valid: cust.Address != ""}
	e := c.db.QueryRowContext(ctx, "INSERT INTO Customers (Name, Phone, Email, Address) VALUES ($1, $2, $3, $4) RETURNING Id",
		cust.Name, cust.Phone, email, address).Scan(&id)
	if e != nil {
		c.logger.Error("CreateCustomer", zap.Error(e))
		err = models.ErrServerError
	}
	return
}

func (c *CustomerRepo) query(ctx context.Context, op string, q string, args ...any) (customers []models.Customer_db, err error) {
	rows, e := c.db.QueryContext(ctx, q, args...)
	if e != nil {
		c.logger.Error(op+"[1]", zap.Error(e))
		err = models.ErrServerError
		return
	}
	defer rows.Close()
	for rows.Next() {
		var cModel models.Customer_db
		e = rows.Scan(&cModel.Id, &cModel.Name, &cModel.Phone, &cModel.Email, &cModel.Address)
		if e != nil {
			c.logger.Error(op+"[2]", zap.Error(e))
			err = models.ErrServerError
			return
		}
		customers = append(customers, cModel)
	}
	if e = rows.Err(); e != nil {
		c.logger.Error(op+"[3]", zap.Error(e))
		err = models.ErrServerError
	}
	return
}
