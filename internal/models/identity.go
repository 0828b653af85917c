package models

// SecretIdentity is a static catalog entry: the masked persona a cult
// member receives on enrollment. Assignment is random with replacement, so
// two players may hold the same identity at once.
type SecretIdentity struct {
	ID          string `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:text;not null" json:"name"`
	MaskSymbol  string `gorm:"type:text;not null" json:"mask_symbol"`
	Description string `gorm:"type:text" json:"description"`
}
