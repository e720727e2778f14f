package presenter

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

const RouteHome = "home"

var (
	ErrInvalidPhone = errors.New("enter a valid 10-digit mobile number")
	ErrInvalidOTP   = errors.New("the code has 6 digits")
)

var (
	phoneRe = regexp.MustCompile(`^(\+91)?[6-9][0-9]{9}$`)
	otpRe   = regexp.MustCompile(`^[0-9]{6}$`)
)

type LoginStep int

const (
	StepPhone LoginStep = iota
	StepOTP
	StepDone
)

type LoginState struct {
	Step  LoginStep
	Phone string
	Role  models.Role
}

type LoginViewModel struct {
	*Base[LoginState]
	auth Authenticator
}

func NewLoginViewModel(ctx context.Context, auth Authenticator, log logging.Logger) *LoginViewModel {
	return &LoginViewModel{
		Base: NewBase(ctx, LoginState{Role: models.RoleTransporter}, log),
		auth: auth,
	}
}

// SendOTP validates the number locally before asking for a code.
func (vm *LoginViewModel) SendOTP(phone string, role models.Role) <-chan struct{} {
	phone = normalizePhone(phone)
	return vm.Execute(ExecOptions{}, func(ctx context.Context) error {
		if !phoneRe.MatchString(phone) {
			return ErrInvalidPhone
		}
		if err := vm.auth.SendOTP(ctx, phone, role); err != nil {
			return err
		}
		vm.Update(func(s LoginState) LoginState {
			return LoginState{Step: StepOTP, Phone: phone, Role: role}
		})
		vm.Emit(Event{Kind: EventToast, Message: "code sent to " + phone})
		return nil
	})
}

func (vm *LoginViewModel) VerifyOTP(otp string) <-chan struct{} {
	s := vm.State().Value()
	return vm.Execute(ExecOptions{}, func(ctx context.Context) error {
		if !otpRe.MatchString(strings.TrimSpace(otp)) {
			return ErrInvalidOTP
		}
		if _, err := vm.auth.VerifyOTP(ctx, s.Phone, strings.TrimSpace(otp), s.Role); err != nil {
			return err
		}
		vm.Update(func(s LoginState) LoginState {
			s.Step = StepDone
			return s
		})
		vm.Emit(Event{Kind: EventNavigate, Route: RouteHome})
		return nil
	})
}

func normalizePhone(p string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(p))
}
