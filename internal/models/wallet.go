package models

import (
	"time"
)

// WalletAccount is the per-party balance. It is only mutated by the ledger
// service, inside the same database transaction as the entry it records.
type WalletAccount struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	PartyType     PartyType `gorm:"type:varchar(16);not null;uniqueIndex:idx_wallet_party" json:"party_type"`
	PartyID       uint      `gorm:"not null;uniqueIndex:idx_wallet_party" json:"party_id"`
	Balance       float64   `gorm:"not null;default:0;check:balance >= 0" json:"balance"`
	TotalCredited float64   `gorm:"not null;default:0" json:"total_credited"`
	TotalDeducted float64   `gorm:"not null;default:0" json:"total_deducted"`
	Version       int64     `gorm:"not null;default:0" json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Party returns the owner of the account.
func (w *WalletAccount) Party() PartyRef {
	return PartyRef{Type: w.PartyType, ID: w.PartyID}
}

// PartyDevice maps a party to the push token of its most recent device.
type PartyDevice struct {
	ID          uint      `gorm:"primarykey"`
	PartyType   PartyType `gorm:"type:varchar(16);not null;uniqueIndex:idx_device_party"`
	PartyID     uint      `gorm:"not null;uniqueIndex:idx_device_party"`
	DeviceToken string    `gorm:"not null"`
	UpdatedAt   time.Time
}
