package correction

import "attendance-backend/internal/attendance"

// Form は入力途中の修正フォーム。
// 一度フォーカスを外した（touched）欄だけ、変更のたびに再検証する。
// 提出時は必ず Validate で全体を検証し直す。
type Form struct {
	Base    attendance.Session
	values  map[Field]string
	touched map[Field]bool
	errors  map[Field]*ValidationError
}

func NewForm(base attendance.Session) *Form {
	return &Form{
		Base:    base,
		values:  map[Field]string{},
		touched: map[Field]bool{},
		errors:  map[Field]*ValidationError{},
	}
}

func (f *Form) Change(field Field, value string) {
	f.values[field] = value
	if f.touched[field] {
		f.validate(field)
	}
}

func (f *Form) Blur(field Field) {
	f.touched[field] = true
	f.validate(field)
}

func (f *Form) Value(field Field) string { return f.values[field] }

func (f *Form) Touched(field Field) bool { return f.touched[field] }

// Error はその欄の現在のエラー。無ければ nil
func (f *Form) Error(field Field) *ValidationError { return f.errors[field] }

func (f *Form) Proposal() Proposal {
	return Proposal{
		Base:          f.Base,
		CheckInText:   f.values[FieldCheckIn],
		CheckOutText:  f.values[FieldCheckOut],
		Justification: f.values[FieldJustification],
	}
}

func (f *Form) validate(field Field) {
	verr := ValidateField(f.Proposal(), field)
	if verr == nil {
		delete(f.errors, field)
		return
	}
	f.errors[field] = verr
}

// ValidateField は1つの欄だけを検証する（check-field エンドポイントと共用）
func ValidateField(p Proposal, field Field) *ValidationError {
	switch field {
	case FieldCheckIn:
		_, verr := ValidateTimeField(p.CheckInText, p.checkInAnchor())
		return verr
	case FieldCheckOut:
		_, verr := ValidateTimeField(p.CheckOutText, p.checkOutAnchor())
		return verr
	case FieldJustification:
		return ValidateJustification(p.Justification)
	}
	return nil
}

// ParseField は "check_in" 等を Field にする
func ParseField(s string) (Field, bool) {
	switch f := Field(s); f {
	case FieldCheckIn, FieldCheckOut, FieldJustification:
		return f, true
	}
	return "", false
}
