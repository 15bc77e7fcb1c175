package models

import (
	"encoding/json"
	"time"
)

type ServiceRequest struct {
	ID                   string        `json:"_id" bson:"-"`
	CustomerName         string        `json:"customerName" bson:"customerName"`
	Phone                string        `json:"phone" bson:"phone"`
	CarType              string        `json:"carType" bson:"carType"`
	CarModel             string        `json:"carModel" bson:"carModel"`
	CarNumber            string        `json:"carNumber" bson:"carNumber"`
	Kilometers           string        `json:"kilometers" bson:"kilometers"`
	Problem              string        `json:"problem" bson:"problem"`
	Notes                string        `json:"notes" bson:"notes"`
	RepairCost           Amount        `json:"repairCost" bson:"repairCost"`
	SparePartName        string        `json:"sparePartName" bson:"sparePartName"`
	SparePartPrice       Amount        `json:"sparePartPrice" bson:"sparePartPrice"`
	SpareParts           []UsedPart    `json:"spareParts" bson:"spareParts"`
	Total                Amount        `json:"total" bson:"total"`
	Status               Status        `json:"status" bson:"status"`
	PaymentStatus        PaymentStatus `json:"paymentStatus" bson:"paymentStatus"`
	RemainingAmount      Amount        `json:"remainingAmount" bson:"remainingAmount"`
	NetPurchasesRkha     Amount        `json:"netPurchasesRkha" bson:"netPurchasesRkha"`
	NetPurchasesExternal Amount        `json:"netPurchasesExternal" bson:"netPurchasesExternal"`
	CreatedAt            time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// UsedPart is a spare part consumed by a request. SpareID is looked up first
// and Name is used when the id no longer matches a spare.
type UsedPart struct {
	SpareID  string `json:"spareId" bson:"spareId"`
	Name     string `json:"name" bson:"name"`
	Price    Amount `json:"price" bson:"price"`
	Quantity int    `json:"quantity" bson:"quantity"`
}

// UnmarshalJSON accepts the quantity in any form Amount does and truncates it.
func (p *UsedPart) UnmarshalJSON(data []byte) error {
	var raw struct {
		SpareID  string `json:"spareId"`
		Name     string `json:"name"`
		Price    Amount `json:"price"`
		Quantity Amount `json:"quantity"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = UsedPart{
		SpareID:  raw.SpareID,
		Name:     raw.Name,
		Price:    raw.Price,
		Quantity: raw.Quantity.Count(),
	}
	return nil
}

// ComputeTotal is labour plus every part the request lists.
func (r ServiceRequest) ComputeTotal() Amount {
	total := r.RepairCost + r.SparePartPrice
	for _, part := range r.SpareParts {
		qty := part.Quantity
		if qty <= 0 {
			qty = 1
		}
		total += part.Price * Amount(qty)
	}
	return total
}
