package models

import "time"

type ClientRef struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// ParsedVehicle - данные, разобранные из объявления
type ParsedVehicle struct {
	Make    string `json:"make"`
	Model   string `json:"model"`
	Year    int    `json:"year"`
	Mileage int    `json:"mileage"`
	Price   *int64 `json:"price"`
	City    string `json:"city"`
}

// InspectionOrder - заказ на осмотр одного автомобиля.
// Пустой ExpertID недопустим в ASSIGNED, IN_PROGRESS и REPORT_IN_PROGRESS,
// статус DONE всегда идёт вместе с отчётом.
type InspectionOrder struct {
	ID               string           `json:"id"`
	Status           InspectionStatus `json:"status"`
	SourceURL        string           `json:"sourceUrl"`
	ParsedData       ParsedVehicle    `json:"parsedData"`
	City             string           `json:"city"`
	Client           ClientRef        `json:"client"`
	SellerContact    string           `json:"sellerContact,omitempty"`
	PriceSegment     string           `json:"priceSegment"`
	Summary          string           `json:"summary"`
	ExpertID         string           `json:"expertId"`
	AppointmentAt    *time.Time       `json:"appointmentAt"`
	Address          string           `json:"address,omitempty"`
	TariffID         string           `json:"tariffId,omitempty"`
	SelectionOrderID string           `json:"selectionOrderId,omitempty"`
	Report           *Report          `json:"report"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// Vehicle - строка "марка модель год" для списков и поиска
func (o InspectionOrder) Vehicle() string {
	return VehicleTitle(o.ParsedData.Make, o.ParsedData.Model, o.ParsedData.Year)
}

func (o InspectionOrder) HasExpert() bool {
	return o.ExpertID != ""
}

// InspectionPatch - поля, которые оператор может править напрямую.
// Статус, эксперт, отчёт и связь с подбором меняются только своими операциями.
type InspectionPatch struct {
	SourceURL     *string
	City          *string
	Client        *ClientRef
	SellerContact *string
	PriceSegment  *string
	Summary       *string
	Address       *string
	TariffID      *string
}

func (p InspectionPatch) Apply(o *InspectionOrder) {
	if p.SourceURL != nil {
		o.SourceURL = *p.SourceURL
	}
	if p.City != nil {
		o.City = *p.City
	}
	if p.Client != nil {
		o.Client = *p.Client
	}
	if p.SellerContact != nil {
		o.SellerContact = *p.SellerContact
	}
	if p.PriceSegment != nil {
		o.PriceSegment = *p.PriceSegment
	}
	if p.Summary != nil {
		o.Summary = *p.Summary
	}
	if p.Address != nil {
		o.Address = *p.Address
	}
	if p.TariffID != nil {
		o.TariffID = *p.TariffID
	}
}
