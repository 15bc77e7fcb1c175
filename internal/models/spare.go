package models

import "time"

type SparePart struct {
	ID        string    `json:"_id" bson:"-"`
	Name      string    `json:"name" bson:"name"`
	Price     Amount    `json:"price" bson:"price"`
	Quantity  int       `json:"quantity" bson:"quantity"`
	Category  string    `json:"category" bson:"category"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (s SparePart) LowStock(threshold int) bool {
	return s.Quantity <= threshold
}

type SpareCategory struct {
	Name string `json:"name" bson:"name"`
}
