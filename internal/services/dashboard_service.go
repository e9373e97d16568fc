package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"gst-billing-service/internal/cache"
	"gst-billing-service/internal/models"
	"gst-billing-service/internal/repository"
)

const (
	recentInvoiceCount = 5
	chartMonths        = 6
	dashboardCacheTTL  = 2 * time.Minute
)

// Dashboard is the business overview of a shop
type Dashboard struct {
	TotalCustomers int64             `json:"totalCustomers"`
	TotalInvoices  int64             `json:"totalInvoices"`
	TotalProducts  int64             `json:"totalProducts"`
	TotalRevenue   decimal.Decimal   `json:"totalRevenue"`
	MonthlyRevenue decimal.Decimal   `json:"monthlyRevenue"`
	TotalCGST      decimal.Decimal   `json:"totalCgst"`
	TotalSGST      decimal.Decimal   `json:"totalSgst"`
	TotalIGST      decimal.Decimal   `json:"totalIgst"`
	RecentInvoices []models.Invoice  `json:"recentInvoices"`
	ChartLabels    []string          `json:"chartLabels"`
	ChartRevenue   []decimal.Decimal `json:"chartRevenue"`
	GeneratedAt    time.Time         `json:"generatedAt"`
}

// DashboardService aggregates counts and revenue for the overview page
type DashboardService interface {
	Get(ctx context.Context, shopID uuid.UUID) (*Dashboard, error)
}

type dashboardService struct {
	invoices  repository.InvoiceRepository
	customers repository.CustomerRepository
	products  repository.ProductRepository
	cache     *cache.Cache
	logger    *logrus.Entry
	now       func() time.Time
}

func NewDashboardService(
	invoices repository.InvoiceRepository,
	customers repository.CustomerRepository,
	products repository.ProductRepository,
	c *cache.Cache,
	logger *logrus.Logger,
) DashboardService {
	return &dashboardService{
		invoices:  invoices,
		customers: customers,
		products:  products,
		cache:     c,
		logger:    logger.WithField("component", "dashboard"),
		now:       time.Now,
	}
}

func dashboardCacheKey(shopID uuid.UUID) string {
	return fmt.Sprintf("dashboard:%s", shopID)
}

func (s *dashboardService) Get(ctx context.Context, shopID uuid.UUID) (*Dashboard, error) {
	key := dashboardCacheKey(shopID)

	var cached Dashboard
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)
	chartStart := monthStart.AddDate(0, -(chartMonths - 1), 0)

	d := &Dashboard{GeneratedAt: now}
	var (
		allTime   *repository.InvoiceSums
		thisMonth *repository.InvoiceSums
		monthly   []repository.MonthlyAmount
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.TotalCustomers, err = s.customers.Count(gctx, shopID)
		return wrapErr("count customers", err)
	})
	g.Go(func() (err error) {
		d.TotalInvoices, err = s.invoices.Count(gctx, shopID)
		return wrapErr("count invoices", err)
	})
	g.Go(func() (err error) {
		d.TotalProducts, err = s.products.Count(gctx, shopID)
		return wrapErr("count products", err)
	})
	g.Go(func() (err error) {
		allTime, err = s.invoices.Sums(gctx, shopID, repository.DateRange{})
		return wrapErr("sum invoices", err)
	})
	g.Go(func() (err error) {
		last := nextMonth.AddDate(0, 0, -1)
		thisMonth, err = s.invoices.Sums(gctx, shopID, repository.DateRange{From: &monthStart, To: &last})
		return wrapErr("sum current month", err)
	})
	g.Go(func() (err error) {
		d.RecentInvoices, err = s.invoices.Recent(gctx, shopID, recentInvoiceCount)
		return wrapErr("load recent invoices", err)
	})
	g.Go(func() (err error) {
		monthly, err = s.invoices.MonthlyRevenue(gctx, shopID, chartStart, nextMonth)
		return wrapErr("load monthly revenue", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.TotalRevenue = allTime.GrandTotal
	d.TotalCGST = allTime.CGSTAmount
	d.TotalSGST = allTime.SGSTAmount
	d.TotalIGST = allTime.IGSTAmount
	d.MonthlyRevenue = thisMonth.GrandTotal
	if d.RecentInvoices == nil {
		d.RecentInvoices = []models.Invoice{}
	}
	d.ChartLabels, d.ChartRevenue = monthSeries(chartStart, chartMonths, monthly)

	s.logger.WithField("shop_id", shopID).Debug("Dashboard computed")
	s.cache.SetJSONWithTTL(ctx, key, d, dashboardCacheTTL)
	return d, nil
}

// monthSeries lays out n calendar months from start, filling months without
// invoices with zero.
func monthSeries(start time.Time, n int, rows []repository.MonthlyAmount) ([]string, []decimal.Decimal) {
	byMonth := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		byMonth[row.Month.Format("2006-01")] = row.Total
	}

	labels := make([]string, 0, n)
	values := make([]decimal.Decimal, 0, n)
	for i := 0; i < n; i++ {
		month := start.AddDate(0, i, 0)
		labels = append(labels, month.Format("Jan"))
		values = append(values, byMonth[month.Format("2006-01")])
	}
	return labels, values
}

func wrapErr(action string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
