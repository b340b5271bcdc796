package service

import (
	"fmt"
	"io"

	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/internal/app/repository"
	"github.com/ikkim/littlelemon-backend/internal/permission"
	"github.com/ikkim/littlelemon-backend/pkg/logger"
	"github.com/ikkim/littlelemon-backend/pkg/pagination"
	"github.com/xuri/excelize/v2"
)

const ordersSheet = "Orders"

var orderReportHeader = []interface{}{
	"Order ID", "Customer ID", "Delivery Crew ID", "Status", "Items", "Total", "Date Created",
}

type ReportService interface {
	WriteOrders(p *permission.Principal, filter repository.OrderFilter, w io.Writer) error
}

type reportService struct {
	orderRepo repository.OrderRepository
}

func NewReportService(orderRepo repository.OrderRepository) ReportService {
	return &reportService{orderRepo: orderRepo}
}

// WriteOrders renders every order matching filter as an xlsx workbook
func (s *reportService) WriteOrders(p *permission.Principal, filter repository.OrderFilter, w io.Writer) error {
	if err := permission.Enforce(permission.IsManager, permission.Check{Principal: p, Action: permission.ActionList}); err != nil {
		return err
	}
	filter.Scope = repository.OrderScope{All: true}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(ordersSheet, "A1", &orderReportHeader); err != nil {
		return err
	}

	row := 2
	page := pagination.Params{Limit: pagination.MaxLimit}
	for {
		orders, count, err := s.orderRepo.List(filter, page)
		if err != nil {
			return err
		}
		for i := range orders {
			cell, err := reportCell(row)
			if err != nil {
				return err
			}
			values := reportRow(&orders[i])
			if err := f.SetSheetRow(ordersSheet, cell, &values); err != nil {
				return err
			}
			row++
		}
		page.Offset += len(orders)
		if len(orders) == 0 || int64(page.Offset) >= count {
			break
		}
	}

	if err := f.SetColWidth(ordersSheet, "A", "G", 18); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing orders report: %w", err)
	}

	logger.Info("Orders report generated", logger.Fields{
		"rows":         row - 2,
		"requested_by": p.UserID,
	})
	return nil
}

func reportRow(o *model.Order) []interface{} {
	var crew interface{} = ""
	if o.DeliveryCrewID != nil {
		crew = *o.DeliveryCrewID
	}
	return []interface{}{
		o.ID,
		o.UserID,
		crew,
		string(o.Status),
		len(o.Items),
		o.Total.InexactFloat64(),
		o.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}

// reportCell names the first cell of a sheet row
func reportCell(row int) (string, error) {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return "", fmt.Errorf("orders report row %d: %w", row, err)
	}
	return cell, nil
}
