package service

import (
    "context"
    "errors"
    "time"

    "github.com/iliyamo/bookstore-orders/internal/model"
    "github.com/iliyamo/bookstore-orders/internal/repository"
)

// TrackingService maintains the status-and-comment timeline of online
// orders.  Transitions are deliberately permissive: any status value is
// accepted, including regressions, and the same value is mirrored onto
// the order so both views agree.
type TrackingService struct {
    tracking TrackingStore
    orders   OrderStore
    now      func() time.Time
}

// NewTrackingService wires the tracking ledger.
func NewTrackingService(tracking TrackingStore, orders OrderStore) *TrackingService {
    if tracking == nil || orders == nil {
        panic("nil store passed to NewTrackingService")
    }
    return &TrackingService{
        tracking: tracking,
        orders:   orders,
        now:      func() time.Time { return time.Now().UTC() },
    }
}

// ensureRecord returns the tracking record for the order, creating one
// seeded with the order's original creation time and a system comment
// when it is missing.
func (s *TrackingService) ensureRecord(ctx context.Context, order model.Order) (model.TrackingRecord, error) {
    t, err := s.tracking.GetByOrderID(ctx, order.ID)
    if err == nil {
        return t, nil
    }
    if !errors.Is(err, repository.ErrTrackingNotFound) {
        return t, err
    }
    t = model.TrackingRecord{
        OrderID:       order.ID,
        CustomerID:    order.CustomerID,
        CustomerName:  order.CustomerName,
        Status:        order.Status,
        CreatedAt:     order.CreatedAt,
        LastUpdatedAt: order.CreatedAt,
        Comments: []model.TrackingComment{{
            Timestamp: order.CreatedAt,
            Message:   "Order received",
            Author:    "System",
        }},
    }
    if err := s.tracking.Create(ctx, &t); err != nil {
        return t, err
    }
    return t, nil
}

// Get returns the tracking record for an online order, creating it
// lazily when absent.  In-person sales are never tracked.
func (s *TrackingService) Get(ctx context.Context, orderID uint64) (model.TrackingRecord, error) {
    order, err := s.orders.GetByID(ctx, orderID)
    if err != nil {
        if errors.Is(err, repository.ErrOrderNotFound) {
            return model.TrackingRecord{}, &NotFoundError{Entity: "order", ID: uintID(orderID)}
        }
        return model.TrackingRecord{}, err
    }
    if order.Channel != model.ChannelOnline {
        return model.TrackingRecord{}, &InvalidArgumentError{Reason: "in-person sales are not tracked"}
    }
    return s.ensureRecord(ctx, order)
}

// AdvanceStatus sets the order's tracking status, optionally appending
// a comment, and mirrors the status onto the order record.  No
// forward-progress validation is performed; callers may jump or
// regress between statuses freely.
func (s *TrackingService) AdvanceStatus(ctx context.Context, orderID uint64, newStatus, comment, actor string) (model.TrackingRecord, error) {
    var zero model.TrackingRecord
    if newStatus == "" {
        return zero, &InvalidArgumentError{Reason: "status is required"}
    }
    order, err := s.orders.GetByID(ctx, orderID)
    if err != nil {
        if errors.Is(err, repository.ErrOrderNotFound) {
            return zero, &NotFoundError{Entity: "order", ID: uintID(orderID)}
        }
        return zero, err
    }
    if order.Channel != model.ChannelOnline {
        return zero, &InvalidArgumentError{Reason: "in-person sales are not tracked"}
    }
    if _, err := s.ensureRecord(ctx, order); err != nil {
        return zero, err
    }

    now := s.now()
    if err := s.tracking.UpdateStatus(ctx, orderID, newStatus, now); err != nil {
        return zero, err
    }
    if comment != "" {
        c := model.TrackingComment{Timestamp: now, Message: comment, Author: actor}
        if err := s.tracking.AppendComment(ctx, orderID, c); err != nil {
            return zero, err
        }
    }
    if err := s.orders.UpdateStatus(ctx, orderID, newStatus); err != nil {
        return zero, err
    }
    return s.tracking.GetByOrderID(ctx, orderID)
}
