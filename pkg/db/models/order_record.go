package models

import "time"

// OrderRecord is the append-only audit row written once per completed
// checkout. ID is the cart id, so a duplicate submission can never produce a
// second row.
type OrderRecord struct {
	ID             string    `gorm:"column:id;primaryKey"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	Payload        string    `gorm:"column:payload;not null"`
	TotalCents     int64     `gorm:"column:total_cents;not null"`
	ConfirmationID string    `gorm:"column:confirmation_id;not null"`
}

func (OrderRecord) TableName() string {
	return "orders"
}
