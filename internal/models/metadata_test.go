package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryMetadata_Validate(t *testing.T) {
	tests := []struct {
		name    string
		meta    EntryMetadata
		wantErr bool
	}{
		{
			name: "report upload installment",
			meta: InstallmentMetadata(TxReportUpload, InstallmentMeta{BookingID: 1, BaseAmount: 5000}),
		},
		{
			name: "refund",
			meta: RefundMetadata(RefundMeta{BookingID: 1, Reason: "failed borewell"}),
		},
		{
			name:    "installment variant under withdrawal kind",
			meta:    InstallmentMetadata(TxWithdrawalProcessed, InstallmentMeta{BookingID: 1}),
			wantErr: true,
		},
		{
			name:    "no variant",
			meta:    EntryMetadata{Kind: TxRefund},
			wantErr: true,
		},
		{
			name: "two variants",
			meta: EntryMetadata{
				Kind:       TxRefund,
				Refund:     &RefundMeta{BookingID: 1},
				Settlement: &SettlementMeta{BookingID: 1},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.meta.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMetadataMismatch)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEntryMetadata_ScanValue(t *testing.T) {
	meta := WithdrawalMetadata(TxWithdrawalProcessed, WithdrawalMeta{WithdrawalID: 42, PaymentMethod: "bank_transfer"})

	raw, err := meta.Value()
	require.NoError(t, err)

	var decoded EntryMetadata
	require.NoError(t, decoded.Scan(raw))

	id, ok := decoded.WithdrawalID()
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)
	assert.NoError(t, decoded.Validate())
}

func TestBalanceAffectingTypes(t *testing.T) {
	types := BalanceAffectingTypes()
	assert.NotContains(t, types, TxWithdrawalRequest)
	assert.NotContains(t, types, TxWithdrawalRejected)
	assert.Contains(t, types, TxWithdrawalProcessed)
	assert.Contains(t, types, TxRefund)
}
