package models

import (
	"fmt"
	"time"

	"github.com/mwhebadata/erp_backend/config"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SerialNumber tracks the last issued sequential number per document type and year.
// Unique constraint: (document_type, year).
type SerialNumber struct {
	ID           int    `gorm:"primary_key" json:"id"`
	DocumentType string `gorm:"size:30;not null;index:uniq_serial,unique" json:"document_type"`
	Year         int    `gorm:"not null;index:uniq_serial,unique" json:"year"`
	Prefix       string `gorm:"size:10;not null" json:"prefix"`
	LastNumber   int    `gorm:"not null;default:0" json:"last_number"`
}

var defaultPrefixes = map[string]string{
	"purchase":        "PUR",
	"purchase_return": "PRET",
	"sale":            "SAL",
	"sale_return":     "SRET",
	"stock_movement":  "MOV",
}

// documentPrefix resolves the number prefix for a document type, redis or default.
// Operators can override prefixes by seeding the cache (e.g. localized series).
func documentPrefix(documentType string) string {
	prefixes := make(map[string]string)
	exists, err := config.GetRedisObject("serialPrefixMap", &prefixes)
	if err == nil && exists {
		if p, ok := prefixes[documentType]; ok && p != "" {
			return p
		}
	}
	return defaultPrefixes[documentType]
}

// NextDocumentNumber issues the next sequential number for the document type,
// e.g. "PUR0042". The series row is locked for the duration of the caller's
// transaction so concurrent issuers cannot observe the same LastNumber.
func NextDocumentNumber(tx *gorm.DB, documentType string) (string, error) {
	prefix := documentPrefix(documentType)
	year := time.Now().UTC().Year()

	var serial SerialNumber
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("document_type = ? AND year = ?", documentType, year).
		First(&serial).Error
	if err == gorm.ErrRecordNotFound {
		serial = SerialNumber{
			DocumentType: documentType,
			Year:         year,
			Prefix:       prefix,
			LastNumber:   0,
		}
		if err := tx.Create(&serial).Error; err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	}

	serial.LastNumber++
	if err := tx.Model(&SerialNumber{}).Where("id = ?", serial.ID).
		Update("last_number", serial.LastNumber).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%04d", serial.Prefix, serial.LastNumber), nil
}
