package model

import (
	"time"
)

// 合同状态
const (
	ContractStatusUploaded   = "uploaded"
	ContractStatusProcessing = "processing"
	ContractStatusAnalyzed   = "analyzed"
	ContractStatusError      = "error"
)

// ValidContractStatus 是否为已知的合同状态
func ValidContractStatus(status string) bool {
	switch status {
	case ContractStatusUploaded, ContractStatusProcessing, ContractStatusAnalyzed, ContractStatusError:
		return true
	}
	return false
}

type Contract struct {
	ID               int64      `gorm:"primaryKey" json:"id"`
	UserID           int64      `gorm:"index;not null" json:"user_id"`
	Filename         string     `gorm:"size:255;not null" json:"filename"`
	OriginalFilename string     `gorm:"size:255;not null" json:"original_filename"`
	StorageKey       string     `gorm:"size:500;not null" json:"-"`
	FileSize         int64      `json:"file_size"`
	MimeType         string     `gorm:"size:100" json:"mime_type"`
	ContractType     string     `gorm:"size:100" json:"contract_type"`
	Status           string     `gorm:"size:20;default:uploaded;index" json:"status"`
	ErrorMessage     string     `gorm:"type:text" json:"error_message,omitempty"`
	ExecutionDate    *time.Time `json:"execution_date,omitempty"`
	EffectiveDate    *time.Time `json:"effective_date,omitempty"`
	ExpirationDate   *time.Time `json:"expiration_date,omitempty"`
	TerminationDate  *time.Time `json:"termination_date,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (Contract) TableName() string {
	return "contracts"
}
