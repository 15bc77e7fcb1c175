package models

import "time"

type Customer struct {
	CustomerName string `json:"customerName"`
	Phone        string `json:"phone"`
	WhatsAppURL  string `json:"whatsappUrl"`
}

type DashboardSummary struct {
	New       int `json:"new"`
	InRepair  int `json:"inprogress"`
	Delivered int `json:"done"`
}

type AccountTotals struct {
	Period               string    `json:"period"`
	From                 time.Time `json:"from"`
	To                   time.Time `json:"to"`
	Count                int       `json:"count"`
	Repair               Amount    `json:"repair"`
	NetPurchasesRkha     Amount    `json:"netRkha"`
	NetPurchasesExternal Amount    `json:"netExternal"`
	Total                Amount    `json:"total"`
	Remaining            Amount    `json:"remaining"`
}

type Invoice struct {
	RequestID   string `json:"requestId"`
	Text        string `json:"text"`
	WhatsAppURL string `json:"whatsappUrl"`
}
