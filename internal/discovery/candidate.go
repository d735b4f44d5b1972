package discovery

import (
	"errors"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/SlpAus/creature-dex-backend/internal/creature"
	"github.com/SlpAus/creature-dex-backend/internal/player"
	"github.com/go-playground/validator/v10"
)

// Candidate 是一次发现请求提交的生物记录。
// 所有字段都是必填的，指针用来区分"未提供"和零值。
type Candidate struct {
	ID          *string   `json:"id" validate:"required,min=1,max=64"`
	Name        *string   `json:"name" validate:"required,min=1"`
	DexIndex    *int      `json:"pokedexNumber" validate:"required,gt=0"`
	Species     *string   `json:"species" validate:"required"`
	Types       *[]string `json:"types" validate:"required"`
	Description *string   `json:"description" validate:"required"`
	Height      *float64  `json:"height" validate:"required"`
	Weight      *float64  `json:"weight" validate:"required"`
	HP          *int      `json:"hp" validate:"required"`
	MaxHP       *int      `json:"maxHp" validate:"required"`
	Rarity      *int      `json:"rarity" validate:"required"`
	ImageURL    *string   `json:"imageUrl" validate:"required"`
	Status      *string   `json:"status" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// 错误信息里使用JSON字段名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate 检查候选记录与训练家名是否完整，不访问存储。
func (c Candidate) Validate(trainerName string) error {
	verr := &ValidationError{}

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			if fe.Tag() == "required" {
				verr.Missing = append(verr.Missing, fe.Field())
			} else {
				verr.Invalid = append(verr.Invalid, fe.Field())
			}
		}
	}
	switch name := strings.TrimSpace(trainerName); {
	case name == "":
		verr.Missing = append(verr.Missing, "trainerName")
	case utf8.RuneCountInString(name) > player.MaxNameLength:
		verr.Invalid = append(verr.Invalid, "trainerName")
	}

	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return verr
	}
	return nil
}

// toCreature 在校验通过后把候选记录转换为持久化模型
func (c Candidate) toCreature(trainerName string) *creature.Creature {
	return &creature.Creature{
		ID:          *c.ID,
		Name:        *c.Name,
		DexIndex:    *c.DexIndex,
		Species:     *c.Species,
		Types:       append([]string{}, (*c.Types)...),
		Description: *c.Description,
		Height:      *c.Height,
		Weight:      *c.Weight,
		HP:          *c.HP,
		MaxHP:       *c.MaxHP,
		Rarity:      *c.Rarity,
		ImageURL:    *c.ImageURL,
		Status:      *c.Status,
		TrainerName: strings.TrimSpace(trainerName),
	}
}
