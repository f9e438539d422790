package models

import "fmt"

// PartyType distinguishes the two sides of the marketplace.
type PartyType string

const (
	PartyVendor PartyType = "vendor"
	PartyUser   PartyType = "user"
)

// Valid reports whether t is a known party type.
func (t PartyType) Valid() bool {
	return t == PartyVendor || t == PartyUser
}

// PartyRef identifies the owner of a wallet account.
type PartyRef struct {
	Type PartyType `json:"type"`
	ID   uint      `json:"id"`
}

// Vendor returns the PartyRef of vendor id.
func Vendor(id uint) PartyRef { return PartyRef{Type: PartyVendor, ID: id} }

// User returns the PartyRef of user id.
func User(id uint) PartyRef { return PartyRef{Type: PartyUser, ID: id} }

// Valid reports whether p names a real party.
func (p PartyRef) Valid() bool {
	return p.Type.Valid() && p.ID != 0
}

func (p PartyRef) String() string {
	return fmt.Sprintf("%s:%d", p.Type, p.ID)
}
