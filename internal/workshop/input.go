package workshop

import (
	"strings"

	"github.com/Fahmy112/Al-Rayan-Service/internal/models"
)

type RequestInput struct {
	CustomerName         string             `json:"customerName"`
	Phone                string             `json:"phone"`
	CarType              string             `json:"carType"`
	CarModel             string             `json:"carModel"`
	CarNumber            string             `json:"carNumber"`
	Kilometers           string             `json:"kilometers"`
	Problem              string             `json:"problem"`
	Notes                string             `json:"notes"`
	RepairCost           models.Amount      `json:"repairCost"`
	SparePartName        string             `json:"sparePartName"`
	SparePartPrice       models.Amount      `json:"sparePartPrice"`
	SpareParts           []models.UsedPart  `json:"spareParts"`
	Total                models.Amount      `json:"total"`
	Status               string             `json:"status"`
	PaymentStatus        string             `json:"paymentStatus"`
	RemainingAmount      models.Amount      `json:"remainingAmount"`
	NetPurchasesRkha     models.Amount      `json:"netPurchasesRkha"`
	NetPurchasesExternal models.Amount      `json:"netPurchasesExternal"`
}

func (in RequestInput) toModel() (models.ServiceRequest, error) {
	req := models.ServiceRequest{
		CustomerName:         strings.TrimSpace(in.CustomerName),
		Phone:                strings.TrimSpace(in.Phone),
		CarType:              strings.TrimSpace(in.CarType),
		CarModel:             strings.TrimSpace(in.CarModel),
		CarNumber:            strings.TrimSpace(in.CarNumber),
		Kilometers:           strings.TrimSpace(in.Kilometers),
		Problem:              strings.TrimSpace(in.Problem),
		Notes:                in.Notes,
		RepairCost:           in.RepairCost,
		SparePartName:        strings.TrimSpace(in.SparePartName),
		SparePartPrice:       in.SparePartPrice,
		SpareParts:           normalizeParts(in.SpareParts),
		Total:                in.Total,
		Status:               models.StatusNew,
		RemainingAmount:      in.RemainingAmount,
		NetPurchasesRkha:     in.NetPurchasesRkha,
		NetPurchasesExternal: in.NetPurchasesExternal,
	}
	if req.CustomerName == "" || req.Phone == "" || req.Problem == "" {
		return models.ServiceRequest{}, invalid("customerName, phone and problem are required")
	}
	if in.Status != "" {
		status, ok := models.ParseStatus(in.Status)
		if !ok {
			return models.ServiceRequest{}, invalid("unknown status")
		}
		req.Status = status
	}
	payment, ok := models.ParsePaymentStatus(in.PaymentStatus)
	if !ok {
		return models.ServiceRequest{}, invalid("unknown paymentStatus")
	}
	req.PaymentStatus = payment
	if req.Total == 0 {
		req.Total = req.ComputeTotal()
	}
	return req, nil
}

// RequestPatch carries only the fields a caller sent. Absent fields keep
// their stored value.
type RequestPatch struct {
	CustomerName         *string            `json:"customerName"`
	Phone                *string            `json:"phone"`
	CarType              *string            `json:"carType"`
	CarModel             *string            `json:"carModel"`
	CarNumber            *string            `json:"carNumber"`
	Kilometers           *string            `json:"kilometers"`
	Problem              *string            `json:"problem"`
	Notes                *string            `json:"notes"`
	RepairCost           *models.Amount     `json:"repairCost"`
	SparePartName        *string            `json:"sparePartName"`
	SparePartPrice       *models.Amount     `json:"sparePartPrice"`
	SpareParts           *[]models.UsedPart `json:"spareParts"`
	Total                *models.Amount     `json:"total"`
	Status               *string            `json:"status"`
	PaymentStatus        *string            `json:"paymentStatus"`
	RemainingAmount      *models.Amount     `json:"remainingAmount"`
	NetPurchasesRkha     *models.Amount     `json:"netPurchasesRkha"`
	NetPurchasesExternal *models.Amount     `json:"netPurchasesExternal"`
}

func (p RequestPatch) apply(req *models.ServiceRequest) error {
	setString(&req.CustomerName, p.CustomerName)
	setString(&req.Phone, p.Phone)
	setString(&req.CarType, p.CarType)
	setString(&req.CarModel, p.CarModel)
	setString(&req.CarNumber, p.CarNumber)
	setString(&req.Kilometers, p.Kilometers)
	setString(&req.Problem, p.Problem)
	if p.Notes != nil {
		req.Notes = *p.Notes
	}
	setAmount(&req.RepairCost, p.RepairCost)
	setString(&req.SparePartName, p.SparePartName)
	setAmount(&req.SparePartPrice, p.SparePartPrice)
	if p.SpareParts != nil {
		req.SpareParts = normalizeParts(*p.SpareParts)
	}
	setAmount(&req.RemainingAmount, p.RemainingAmount)
	setAmount(&req.NetPurchasesRkha, p.NetPurchasesRkha)
	setAmount(&req.NetPurchasesExternal, p.NetPurchasesExternal)
	if p.Status != nil {
		status, ok := models.ParseStatus(*p.Status)
		if !ok {
			return invalid("unknown status")
		}
		req.Status = status
	}
	if p.PaymentStatus != nil {
		payment, ok := models.ParsePaymentStatus(*p.PaymentStatus)
		if !ok {
			return invalid("unknown paymentStatus")
		}
		req.PaymentStatus = payment
	}
	switch {
	case p.Total != nil:
		req.Total = *p.Total
	case p.RepairCost != nil || p.SparePartPrice != nil || p.SpareParts != nil:
		req.Total = req.ComputeTotal()
	}
	return nil
}

type SpareInput struct {
	Name     string         `json:"name"`
	Price    *models.Amount `json:"price"`
	Quantity models.Amount  `json:"quantity"`
	Category string         `json:"category"`
}

func (in SpareInput) toModel() (models.SparePart, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.Price == nil {
		return models.SparePart{}, invalid("name and price are required")
	}
	return models.SparePart{
		Name:     name,
		Price:    *in.Price,
		Quantity: toQuantity(in.Quantity),
		Category: strings.TrimSpace(in.Category),
	}, nil
}

type SparePatch struct {
	ID       string         `json:"id"`
	Name     *string        `json:"name"`
	Price    *models.Amount `json:"price"`
	Quantity *models.Amount `json:"quantity"`
	Category *string        `json:"category"`
}

func (p SparePatch) apply(spare *models.SparePart) error {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return invalid("name cannot be empty")
		}
		spare.Name = name
	}
	setAmount(&spare.Price, p.Price)
	if p.Quantity != nil {
		spare.Quantity = toQuantity(*p.Quantity)
	}
	if p.Category != nil {
		spare.Category = strings.TrimSpace(*p.Category)
	}
	return nil
}

func toQuantity(value models.Amount) int {
	return value.Count()
}

func normalizeParts(parts []models.UsedPart) []models.UsedPart {
	if len(parts) == 0 {
		return nil
	}
	out := make([]models.UsedPart, 0, len(parts))
	for _, part := range parts {
		part.SpareID = strings.TrimSpace(part.SpareID)
		part.Name = strings.TrimSpace(part.Name)
		if part.SpareID == "" && part.Name == "" {
			continue
		}
		if part.Quantity <= 0 {
			part.Quantity = 1
		}
		out = append(out, part)
	}
	return out
}

func setString(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}

func setAmount(dst *models.Amount, value *models.Amount) {
	if value != nil {
		*dst = *value
	}
}
