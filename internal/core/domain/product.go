package domain

import "strings"

// ProductAttributes are the caller-supplied product fields. Every field is
// required; all but ProductID are encrypted before they reach the ledger.
type ProductAttributes struct {
	ProductID         string `json:"productId"         validate:"required"`
	Name              string `json:"name"              validate:"required"`
	BatchNumber       string `json:"batchNumber"       validate:"required"`
	ManufacturingDate string `json:"manufacturingDate" validate:"required"`
	Description       string `json:"description"       validate:"required"`
	Price             string `json:"price"             validate:"required"`
}

// EncryptedField is an "ivBase64:ciphertextBase64" pair.
type EncryptedField string

// Split returns the base64 IV and ciphertext halves.
func (f EncryptedField) Split() (iv, ciphertext string, ok bool) {
	return strings.Cut(string(f), ":")
}

// EncryptedProduct is the ledger-bound form of a product registration.
type EncryptedProduct struct {
	ProductID         string
	Name              EncryptedField
	BatchNumber       EncryptedField
	ManufacturingDate EncryptedField
	Description       EncryptedField
	Price             EncryptedField
	Manufacturer      string
	CurrentOwner      string
}

// Ownership is what the ledger reports for a registered product.
type Ownership struct {
	Manufacturer string
	CurrentOwner string
}

// TxReceipt identifies a confirmed ledger transaction.
type TxReceipt struct {
	TxHash      string
	BlockNumber uint64
	GasUsed     uint64
}

// Verification is the outcome of a Verify flow. A product that is unknown
// or whose manufacturer is not onboarded is reported with Valid=false.
type Verification struct {
	Valid        bool
	ProductID    string
	Manufacturer string
	CurrentOwner string
	Message      string
}
