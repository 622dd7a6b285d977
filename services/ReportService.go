package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"billingDesk/entities"
	"billingDesk/models"
	"billingDesk/repository"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	dateLayout       = "2006-01-02"
	chartLabelLayout = "Mon"
	lowStockBelow    = 5
	topProductsLimit = 5
	topProductsDays  = 30
	chartDays        = 7
	salesSheet       = "Sales Report"
	ExportFileName   = "sales_report.xlsx"
)

var exportHeader = []any{"Invoice No", "Date", "Customer", "Total Amount", "Payment Method"}

type ReportService struct {
	pr     repository.ProductRepository
	sr     repository.SaleRepository
	logger *zap.Logger
	now    func() time.Time
	loc    *time.Location
}

func NewReportService(productRepo repository.ProductRepository, saleRepo repository.SaleRepository, logger *zap.Logger) ReportService {
	return ReportService{
		pr:     productRepo,
		sr:     saleRepo,
		logger: logger,
		now:    time.Now,
		loc:    time.Local,
	}
}

// Dashboard summarises today's takings, stock on hand, the best sellers of
// the last 30 days and the sales of the last 7 days.
func (rs *ReportService) Dashboard(ctx context.Context) (dash models.DashboardResponse, err error) {
	today := rs.startOfDay(rs.now())
	tomorrow := today.AddDate(0, 0, 1)

	total, count, err := rs.sr.SalesTotal(ctx, today, tomorrow)
	if err != nil {
		return
	}
	dash.TotalSalesToday, _ = total.Float64()
	dash.SalesToday = count

	if dash.ProductsInStock, err = rs.pr.StockTotal(ctx); err != nil {
		return
	}

	top, err := rs.sr.TopProducts(ctx, today.AddDate(0, 0, -topProductsDays), topProductsLimit)
	if err != nil {
		return
	}
	dash.TopProducts = make([]models.TopProductView, 0, len(top))
	for _, p := range top {
		dash.TopProducts = append(dash.TopProducts, models.TopProductView{Name: p.Name, TotalSold: p.TotalSold})
	}

	low, err := rs.pr.StockBelow(ctx, lowStockBelow)
	if err != nil {
		return
	}
	dash.LowStock = productViews(low)

	days, err := rs.dailyTotals(ctx, today, chartDays)
	if err != nil {
		return
	}
	dash.Chart = chartFromTotals(days)
	return
}

// dailyTotals returns the sales totals of the n days ending with lastDay,
// oldest first.
func (rs *ReportService) dailyTotals(ctx context.Context, lastDay time.Time, n int) (days []entities.DailyTotal, err error) {
	days = make([]entities.DailyTotal, 0, n)
	for i := n - 1; i >= 0; i-- {
		day := lastDay.AddDate(0, 0, -i)
		total, _, e := rs.sr.SalesTotal(ctx, day, day.AddDate(0, 0, 1))
		if e != nil {
			return nil, e
		}
		days = append(days, entities.DailyTotal{Day: day, Total: total})
	}
	return
}

func chartFromTotals(days []entities.DailyTotal) models.ChartData {
	chart := models.ChartData{
		Labels: make([]string, 0, len(days)),
		Data:   make([]float64, 0, len(days)),
	}
	for _, d := range days {
		v, _ := d.Total.Float64()
		chart.Labels = append(chart.Labels, d.Day.Format(chartLabelLayout))
		chart.Data = append(chart.Data, v)
	}
	return chart
}

// Reports lists the sales between startDate and endDate (both inclusive,
// YYYY-MM-DD) together with the low and out of stock products. The date
// filter applies only when both dates are given.
func (rs *ReportService) Reports(ctx context.Context, startDate, endDate string) (rep models.ReportResponse, err error) {
	filter, err := rs.dateFilter(startDate, endDate)
	if err != nil {
		return
	}
	sales, err := rs.sr.ListSales(ctx, filter)
	if err != nil {
		return
	}
	sum := decimal.Zero
	for _, s := range sales {
		sum = sum.Add(s.TotalAmount)
	}

	low, err := rs.pr.StockBelow(ctx, lowStockBelow)
	if err != nil {
		return
	}
	out, err := rs.pr.StockBelow(ctx, 1)
	if err != nil {
		return
	}

	rep = models.ReportResponse{
		Sales:      saleViews(sales),
		LowStock:   productViews(low),
		OutOfStock: productViews(out),
	}
	if !filter.From.IsZero() {
		rep.StartDate, rep.EndDate = strings.TrimSpace(startDate), strings.TrimSpace(endDate)
	}
	rep.TotalAmount, _ = sum.Round(2).Float64()
	return
}

// ExportSales writes the filtered sales as an xlsx workbook.
func (rs *ReportService) ExportSales(ctx context.Context, startDate, endDate string, w io.Writer) (err error) {
	filter, err := rs.dateFilter(startDate, endDate)
	if err != nil {
		return
	}
	sales, err := rs.sr.ListSales(ctx, filter)
	if err != nil {
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	if err = f.SetSheetName(f.GetSheetName(0), salesSheet); err != nil {
		return rs.exportFailed(err)
	}
	if err = f.SetSheetRow(salesSheet, "A1", &exportHeader); err != nil {
		return rs.exportFailed(err)
	}
	for i, s := range sales {
		cell, e := excelize.CoordinatesToCellName(1, i+2)
		if e != nil {
			return rs.exportFailed(e)
		}
		total, _ := s.TotalAmount.Float64()
		row := []any{
			s.InvoiceNo,
			s.Date.In(rs.loc).Format("2006-01-02 15:04"),
			s.CustomerDisplay(),
			total,
			entities.PaymentMethodName(s.PaymentMethod),
		}
		if err = f.SetSheetRow(salesSheet, cell, &row); err != nil {
			return rs.exportFailed(err)
		}
	}
	if _, err = f.WriteTo(w); err != nil {
		return rs.exportFailed(err)
	}
	rs.logger.Info("sales report exported", zap.Int("rows", len(sales)))
	return nil
}

func (rs *ReportService) exportFailed(err error) error {
	rs.logger.Error("ExportSales", zap.Error(err))
	return models.ErrServerError
}

func (rs *ReportService) dateFilter(startDate, endDate string) (filter models.SaleFilter, err error) {
	startDate, endDate = strings.TrimSpace(startDate), strings.TrimSpace(endDate)
	if startDate == "" || endDate == "" {
		return
	}
	from, e := time.ParseInLocation(dateLayout, startDate, rs.loc)
	if e != nil {
		err = fmt.Errorf("start_date %q: %w", startDate, models.ErrBadRequest)
		return
	}
	to, e := time.ParseInLocation(dateLayout, endDate, rs.loc)
	if e != nil {
		err = fmt.Errorf("end_date %q: %w", endDate, models.ErrBadRequest)
		return
	}
	if to.Before(from) {
		err = fmt.Errorf("end_date before start_date: %w", models.ErrBadRequest)
		return
	}
	filter.From = from
	filter.To = to.AddDate(0, 0, 1)
	return
}

func (rs *ReportService) startOfDay(t time.Time) time.Time {
	t = t.In(rs.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, rs.loc)
}
