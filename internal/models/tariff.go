package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type TariffKind string

const (
	TariffInspection TariffKind = "inspection"
	TariffSelection  TariffKind = "selection"
)

const customAmount = "custom"

// Amount - фиксированная цена или "custom" (договорная)
type Amount struct {
	Value  int64
	Custom bool
}

func FixedAmount(v int64) Amount {
	return Amount{Value: v}
}

func CustomAmount() Amount {
	return Amount{Custom: true}
}

// ParseAmount понимает число или слово custom
func ParseAmount(s string) (Amount, error) {
	if s == customAmount {
		return CustomAmount(), nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Amount{}, fmt.Errorf("сумма должна быть числом или %q: %w", customAmount, err)
	}
	return FixedAmount(v), nil
}

func (a Amount) String() string {
	if a.Custom {
		return customAmount
	}
	return FormatAmount(a.Value)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if a.Custom {
		return json.Marshal(customAmount)
	}
	return json.Marshal(a.Value)
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(data, []byte(`"`)) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != customAmount {
			return fmt.Errorf("неизвестное значение суммы %q", s)
		}
		*a = CustomAmount()
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = FixedAmount(v)
	return nil
}

type Tariff struct {
	ID           string     `json:"id"`
	PriceSegment string     `json:"priceSegment"`
	Amount       Amount     `json:"amount"`
	Comment      string     `json:"comment,omitempty"`
	Kind         TariffKind `json:"kind"`
}
