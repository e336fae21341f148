package statistics

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fatflowers/postback/internal/app/service/ledger"
	"github.com/fatflowers/postback/internal/models"
	"github.com/fatflowers/postback/pkg/apperr"
	"github.com/fatflowers/postback/pkg/types"
)

type StatisticType string

const (
	// 每日 postback 数量，按处理结果分组
	StatisticTypeDailyPostbackCount StatisticType = "daily_postback_count"
	// 每日状态迁移数量，按实体类型分组
	StatisticTypeDailyTransitionCount StatisticType = "daily_transition_count"
	// 每日已结算退款金额（分），按币种分组
	StatisticTypeDailyRefundAmount StatisticType = "daily_refund_amount"
)

// FilterFields are the only filterable columns; every source table has them.
var FilterFields = []string{"created_at"}

type DataItem struct {
	ID StatisticType `json:"id"`
}

type Request struct {
	Filters   []*types.CommonFilter `json:"filters"`
	DataItems []*DataItem           `json:"data_items"`
}

type ResponseDataItem struct {
	Date  string `json:"date"`
	Label string `json:"label,omitempty"`
	Value int64  `json:"value"`
}

type Response struct {
	DataItems map[StatisticType][]ResponseDataItem `json:"data_items"`
}

type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

type datedLabel struct {
	CreatedAt time.Time
	Label     string
}

// countByDay buckets rows by UTC day and label, newest day first.
func countByDay(rows []datedLabel) []ResponseDataItem {
	counts := lo.CountValuesBy(rows, func(r datedLabel) lo.Tuple2[string, string] {
		return lo.T2(r.CreatedAt.UTC().Format(time.DateOnly), r.Label)
	})
	out := make([]ResponseDataItem, 0, len(counts))
	for k, n := range counts {
		out = append(out, ResponseDataItem{Date: k.A, Label: k.B, Value: int64(n)})
	}
	sortItems(out)
	return out
}

func sortItems(items []ResponseDataItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Date != items[j].Date {
			return items[i].Date > items[j].Date
		}
		return items[i].Label < items[j].Label
	})
}

func (s *Service) scoped(ctx context.Context, model any, request *Request) *gorm.DB {
	q := s.db.WithContext(ctx).Model(model)
	if len(request.Filters) > 0 {
		q = q.Where(types.FiltersAnd(request.Filters))
	}
	return q
}

func (s *Service) getDailyPostbackCount(ctx context.Context, request *Request) ([]ResponseDataItem, error) {
	var rows []datedLabel
	err := s.scoped(ctx, &models.PostbackLog{}, request).
		Select("created_at, outcome AS label").
		Where("status <> ?", models.PostbackLogStatusReceived).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return countByDay(rows), nil
}

func (s *Service) getDailyTransitionCount(ctx context.Context, request *Request) ([]ResponseDataItem, error) {
	var rows []datedLabel
	err := s.scoped(ctx, &models.StateTransitionLog{}, request).
		Select("created_at, entity_type AS label").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return countByDay(rows), nil
}

func (s *Service) getDailyRefundAmount(ctx context.Context, request *Request) ([]ResponseDataItem, error) {
	var entries []*models.LedgerEntry
	err := s.scoped(ctx, &models.LedgerEntry{}, request).
		Where("account = ? AND type = ?", ledger.AccountCustomerRefunds, models.LedgerEntryTypeDebit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	sums := make(map[lo.Tuple2[string, string]]decimal.Decimal)
	for _, e := range entries {
		k := lo.T2(e.CreatedAt.UTC().Format(time.DateOnly), e.Currency)
		sums[k] = sums[k].Add(e.Amount)
	}
	out := make([]ResponseDataItem, 0, len(sums))
	for k, v := range sums {
		out = append(out, ResponseDataItem{Date: k.A, Label: k.B, Value: v.Shift(2).IntPart()})
	}
	sortItems(out)
	return out, nil
}

func (s *Service) getStatistic(ctx context.Context, request *Request, dataItem *DataItem) ([]ResponseDataItem, error) {
	switch dataItem.ID {
	case StatisticTypeDailyPostbackCount:
		return s.getDailyPostbackCount(ctx, request)
	case StatisticTypeDailyTransitionCount:
		return s.getDailyTransitionCount(ctx, request)
	case StatisticTypeDailyRefundAmount:
		return s.getDailyRefundAmount(ctx, request)
	default:
		return nil, apperr.Protocol("invalid data item id: %s", dataItem.ID)
	}
}

// GetDailyStatistic computes every requested data item concurrently.
func (s *Service) GetDailyStatistic(ctx context.Context, request *Request) (*Response, error) {
	if request == nil {
		return nil, fmt.Errorf("nil request")
	}
	if err := types.ValidateFilters(request.Filters, FilterFields); err != nil {
		return nil, apperr.Protocol("%v", err)
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(request.DataItems))
	resChan := make(chan *lo.Entry[StatisticType, []ResponseDataItem], len(request.DataItems))

	for _, item := range request.DataItems {
		wg.Add(1)
		go func(di *DataItem) {
			defer wg.Done()
			res, err := s.getStatistic(ctx, request, di)
			if err != nil {
				errChan <- err
				return
			}
			resChan <- &lo.Entry[StatisticType, []ResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}

	wg.Wait()
	close(errChan)
	close(resChan)

	if err := <-errChan; err != nil {
		return nil, err
	}
	results := make(map[StatisticType][]ResponseDataItem, len(request.DataItems))
	for entry := range resChan {
		results[entry.Key] = entry.Value
	}
	return &Response{DataItems: results}, nil
}
