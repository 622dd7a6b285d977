package services

import (
	"context"
	"strings"

	"billingDesk/entities"
	"billingDesk/models"
	"billingDesk/repository"

	"go.uber.org/zap"
)

type CustomerService struct {
	cr     repository.CustomerRepository
	sr     repository.SaleRepository
	logger *zap.Logger
}

func NewCustomerService(customerRepo repository.CustomerRepository, saleRepo repository.SaleRepository, logger *zap.Logger) CustomerService {
	return CustomerService{
		cr:     customerRepo,
		sr:     saleRepo,
		logger: logger,
	}
}

// List returns customers whose name or phone contains query.
func (cs *CustomerService) List(ctx context.Context, query string) (views []models.CustomerView, err error) {
	customers, err := cs.cr.Find(ctx, query)
	if err != nil {
		return
	}
	return customerViews(customers), nil
}

func (cs *CustomerService) CreateCustomer(ctx context.Context, req models.InvoiceCustomer) (id int64, err error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)
	id, err = cs.cr.CreateCustomer(ctx, req)
	if err != nil {
		return
	}
	cs.logger.Info("customer created", zap.Int64("customer_id", id))
	return
}

// History returns the customer with their purchases, newest first.
func (cs *CustomerService) History(ctx context.Context, customerId int64) (history models.CustomerHistoryResponse, err error) {
	c, exists, err := cs.cr.GetCustomerById(ctx, customerId)
	if err != nil {
		return
	}
	if !exists {
		err = models.ErrNotFoundError
		return
	}
	sales, err := cs.sr.ListSales(ctx, models.SaleFilter{CustomerId: customerId})
	if err != nil {
		return
	}
	history = models.CustomerHistoryResponse{
		Customer: customerViews([]models.Customer_db{c})[0],
		Sales:    saleViews(sales),
	}
	return
}

func customerViews(customers []models.Customer_db) []models.CustomerView {
	views := make([]models.CustomerView, 0, len(customers))
	for _, c := range customers {
		views = append(views, models.CustomerView{
			Id:      c.Id,
			Name:    c.Name,
			Phone:   c.Phone,
			Email:   c.Email.String,
			Address: c.Address.String,
		})
	}
	return views
}

func saleViews(sales []entities.SaleSummary) []models.SaleView {
	views := make([]models.SaleView, 0, len(sales))
	for _, s := range sales {
		total, _ := s.TotalAmount.Float64()
		views = append(views, models.SaleView{
			Id:            s.SaleId,
			InvoiceNo:     s.InvoiceNo,
			Date:          s.Date,
			Customer:      s.CustomerDisplay(),
			TotalAmount:   total,
			PaymentMethod: entities.PaymentMethodName(s.PaymentMethod),
		})
	}
	return views
}
