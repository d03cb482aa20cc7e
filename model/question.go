package model

import (
	"encoding/json"
	"fmt"
)

// QuestionType discriminates the question union.
type QuestionType string

const (
	TypeOpenText         QuestionType = "openText"
	TypeSingleChoice     QuestionType = "singleChoice"
	TypeMultiChoice      QuestionType = "multiChoice"
	TypePictureSelection QuestionType = "pictureSelection"
	TypeRating           QuestionType = "rating"
	TypeNPS              QuestionType = "nps"
	TypeCTA              QuestionType = "cta"
	TypeAd               QuestionType = "ad"
	TypeConsent          QuestionType = "consent"
	TypeDate             QuestionType = "date"
	TypeFileUpload       QuestionType = "fileUpload"
	TypeMatrix           QuestionType = "matrix"
	TypeAddress          QuestionType = "address"
	TypeScheduling       QuestionType = "scheduling"
	TypeRanking          QuestionType = "ranking"
	TypeContactInfo      QuestionType = "contactInfo"
)

// Question is the closed union over all question variants. Concrete
// variants embed QuestionBase and are always handled by exhaustive
// switches on Type(), so a new variant surfaces every call site that
// needs updating.
type Question interface {
	Base() *QuestionBase
	Type() QuestionType
	question()
}

// QuestionBase carries the fields every variant shares.
type QuestionBase struct {
	ID        string          `json:"id"`
	Required  bool            `json:"required"`
	Headline  LocalizedString `json:"headline"`
	Subheader LocalizedString `json:"subheader,omitempty"`
	Logic     []LogicRule     `json:"logic,omitempty"`
}

func (b *QuestionBase) Base() *QuestionBase { return b }

// Choice is one option of a choice-like question.
type Choice struct {
	ID    string          `json:"id"`
	Label LocalizedString `json:"label"`
}

// PictureChoice is one image option of a picture-selection question.
type PictureChoice struct {
	ID       string `json:"id"`
	ImageURL string `json:"imageUrl"`
}

// FieldSetting toggles one sub-field of address/contact questions.
type FieldSetting struct {
	Show     bool `json:"show"`
	Required bool `json:"required"`
}

type OpenTextQuestion struct {
	QuestionBase
	InputType   string          `json:"inputType,omitempty"` // text, email, url, number, phone
	LongAnswer  bool            `json:"longAnswer,omitempty"`
	Placeholder LocalizedString `json:"placeholder,omitempty"`
}

type SingleChoiceQuestion struct {
	QuestionBase
	Choices       []Choice `json:"choices"`
	ShuffleOption string   `json:"shuffleOption,omitempty"` // none, all, exceptLast
	AllowOther    bool     `json:"allowOther,omitempty"`
}

type MultiChoiceQuestion struct {
	QuestionBase
	Choices       []Choice `json:"choices"`
	ShuffleOption string   `json:"shuffleOption,omitempty"`
	AllowOther    bool     `json:"allowOther,omitempty"`
}

type PictureSelectionQuestion struct {
	QuestionBase
	Choices    []PictureChoice `json:"choices"`
	AllowMulti bool            `json:"allowMulti,omitempty"`
}

type RatingQuestion struct {
	QuestionBase
	Scale      string          `json:"scale"` // number, star, smiley
	Range      int             `json:"range"` // 3, 4, 5, 7 or 10
	LowerLabel LocalizedString `json:"lowerLabel,omitempty"`
	UpperLabel LocalizedString `json:"upperLabel,omitempty"`
}

type NPSQuestion struct {
	QuestionBase
	LowerLabel LocalizedString `json:"lowerLabel,omitempty"`
	UpperLabel LocalizedString `json:"upperLabel,omitempty"`
}

type CTAQuestion struct {
	QuestionBase
	ButtonLabel    LocalizedString `json:"buttonLabel,omitempty"`
	ButtonURL      string          `json:"buttonUrl,omitempty"`
	ButtonExternal bool            `json:"buttonExternal,omitempty"`
}

type AdQuestion struct {
	QuestionBase
	ImageURL string `json:"imageUrl,omitempty"`
	LinkURL  string `json:"linkUrl,omitempty"`
}

type ConsentQuestion struct {
	QuestionBase
	Label LocalizedString `json:"label"`
}

type DateQuestion struct {
	QuestionBase
	Format string `json:"format,omitempty"` // M-d-y, d-M-y, y-M-d
}

type FileUploadQuestion struct {
	QuestionBase
	AllowMultiple bool     `json:"allowMultiple,omitempty"`
	AllowedTypes  []string `json:"allowedTypes,omitempty"`
	MaxSizeMB     int      `json:"maxSizeMb,omitempty"`
}

type MatrixQuestion struct {
	QuestionBase
	Rows    []LocalizedString `json:"rows"`
	Columns []LocalizedString `json:"columns"`
}

type AddressQuestion struct {
	QuestionBase
	AddressLine1 FieldSetting `json:"addressLine1"`
	AddressLine2 FieldSetting `json:"addressLine2"`
	City         FieldSetting `json:"city"`
	State        FieldSetting `json:"state"`
	Zip          FieldSetting `json:"zip"`
	Country      FieldSetting `json:"country"`
}

type SchedulingQuestion struct {
	QuestionBase
	CalendarURL string `json:"calendarUrl"`
}

type RankingQuestion struct {
	QuestionBase
	Choices []Choice `json:"choices"`
}

type ContactInfoQuestion struct {
	QuestionBase
	FirstName FieldSetting `json:"firstName"`
	LastName  FieldSetting `json:"lastName"`
	Email     FieldSetting `json:"email"`
	Phone     FieldSetting `json:"phone"`
	Company   FieldSetting `json:"company"`
}

func (*OpenTextQuestion) Type() QuestionType         { return TypeOpenText }
func (*SingleChoiceQuestion) Type() QuestionType     { return TypeSingleChoice }
func (*MultiChoiceQuestion) Type() QuestionType      { return TypeMultiChoice }
func (*PictureSelectionQuestion) Type() QuestionType { return TypePictureSelection }
func (*RatingQuestion) Type() QuestionType           { return TypeRating }
func (*NPSQuestion) Type() QuestionType              { return TypeNPS }
func (*CTAQuestion) Type() QuestionType              { return TypeCTA }
func (*AdQuestion) Type() QuestionType               { return TypeAd }
func (*ConsentQuestion) Type() QuestionType          { return TypeConsent }
func (*DateQuestion) Type() QuestionType             { return TypeDate }
func (*FileUploadQuestion) Type() QuestionType       { return TypeFileUpload }
func (*MatrixQuestion) Type() QuestionType           { return TypeMatrix }
func (*AddressQuestion) Type() QuestionType          { return TypeAddress }
func (*SchedulingQuestion) Type() QuestionType       { return TypeScheduling }
func (*RankingQuestion) Type() QuestionType          { return TypeRanking }
func (*ContactInfoQuestion) Type() QuestionType      { return TypeContactInfo }

func (*OpenTextQuestion) question()         {}
func (*SingleChoiceQuestion) question()     {}
func (*MultiChoiceQuestion) question()      {}
func (*PictureSelectionQuestion) question() {}
func (*RatingQuestion) question()           {}
func (*NPSQuestion) question()              {}
func (*CTAQuestion) question()              {}
func (*AdQuestion) question()               {}
func (*ConsentQuestion) question()          {}
func (*DateQuestion) question()             {}
func (*FileUploadQuestion) question()       {}
func (*MatrixQuestion) question()           {}
func (*AddressQuestion) question()          {}
func (*SchedulingQuestion) question()       {}
func (*RankingQuestion) question()          {}
func (*ContactInfoQuestion) question()      {}

func newQuestion(t QuestionType) (Question, error) {
	switch t {
	case TypeOpenText:
		return &OpenTextQuestion{}, nil
	case TypeSingleChoice:
		return &SingleChoiceQuestion{}, nil
	case TypeMultiChoice:
		return &MultiChoiceQuestion{}, nil
	case TypePictureSelection:
		return &PictureSelectionQuestion{}, nil
	case TypeRating:
		return &RatingQuestion{}, nil
	case TypeNPS:
		return &NPSQuestion{}, nil
	case TypeCTA:
		return &CTAQuestion{}, nil
	case TypeAd:
		return &AdQuestion{}, nil
	case TypeConsent:
		return &ConsentQuestion{}, nil
	case TypeDate:
		return &DateQuestion{}, nil
	case TypeFileUpload:
		return &FileUploadQuestion{}, nil
	case TypeMatrix:
		return &MatrixQuestion{}, nil
	case TypeAddress:
		return &AddressQuestion{}, nil
	case TypeScheduling:
		return &SchedulingQuestion{}, nil
	case TypeRanking:
		return &RankingQuestion{}, nil
	case TypeContactInfo:
		return &ContactInfoQuestion{}, nil
	}
	return nil, fmt.Errorf("unknown question type %q", t)
}

// QuestionList is an ordered question sequence with type-discriminated
// JSON encoding: each element carries a "type" field next to its
// variant-specific payload.
type QuestionList []Question

func (qs QuestionList) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, len(qs))
	for i, q := range qs {
		body, err := json.Marshal(q)
		if err != nil {
			return nil, err
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, err
		}
		obj["type"], _ = json.Marshal(q.Type())
		if out[i], err = json.Marshal(obj); err != nil {
			return nil, err
		}
	}
	return json.Marshal(out)
}

func (qs *QuestionList) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	list := make(QuestionList, 0, len(raws))
	for i, raw := range raws {
		var env struct {
			Type QuestionType `json:"type"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
		q, err := newQuestion(env.Type)
		if err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
		if err := json.Unmarshal(raw, q); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
		list = append(list, q)
	}
	*qs = list
	return nil
}
