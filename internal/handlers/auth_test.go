package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"kasetinfo/internal/auth"
	"kasetinfo/internal/middleware"
	"kasetinfo/internal/session"
)

type fakeAuth struct {
	data       *session.Data
	signInErr  error
	signOutErr error
	gotCode    string
	signedOut  string
	subs       []func(auth.Event)
}

func (f *fakeAuth) SignIn(_ context.Context, email, password, code string) (string, *session.Data, error) {
	f.gotCode = code
	if f.signInErr != nil {
		return "", nil, f.signInErr
	}
	return "tok-123", f.data, nil
}

func (f *fakeAuth) SignOut(_ context.Context, token string) error {
	f.signedOut = token
	if f.signOutErr != nil {
		return f.signOutErr
	}
	for _, fn := range f.subs {
		if fn != nil {
			fn(auth.Event{Kind: auth.EventSignedOut, Token: token})
		}
	}
	return nil
}

func (f *fakeAuth) Subscribe(fn func(auth.Event)) func() {
	i := len(f.subs)
	f.subs = append(f.subs, fn)
	return func() { f.subs[i] = nil }
}

type fakeCookies struct {
	set     string
	cleared bool
}

func (f *fakeCookies) SetCookie(_ http.ResponseWriter, token string) { f.set = token }
func (f *fakeCookies) ClearCookie(http.ResponseWriter)               { f.cleared = true }

type fakeEnroller struct {
	confirmErr error
	began      uuid.UUID
}

func (f *fakeEnroller) Begin(_ context.Context, userID uuid.UUID, email string) (*auth.Enrolment, error) {
	f.began = userID
	return &auth.Enrolment{Secret: "JBSWY3DPEHPK3PXP", URL: "otpauth://totp/KasetInfo:" + email, QRCode: "iVBOR"}, nil
}

func (f *fakeEnroller) Confirm(context.Context, uuid.UUID, string) error { return f.confirmErr }

func login(t *testing.T, h *Auth, body any) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.Login(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, body)))
	return rr
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		fa := &fakeAuth{data: testSession()}
		fc := &fakeCookies{}
		rr := login(t, NewAuth(fa, fc, nil), loginRequest{Email: "admin@kasetinfo.local", Password: "pw", Code: "123456"})

		if rr.Code != http.StatusOK {
			t.Fatalf("status: got %d", rr.Code)
		}
		resp := decode[loginResponse](t, rr)
		if resp.Token != "tok-123" || fc.set != "tok-123" {
			t.Errorf("token: body %q cookie %q", resp.Token, fc.set)
		}
		if resp.State != "signed_in" || resp.Admin.LoginRequired || len(resp.Admin.Form) == 0 {
			t.Errorf("admin payload: %+v", resp.Admin)
		}
		if fa.gotCode != "123456" {
			t.Errorf("code: got %q", fa.gotCode)
		}
	})

	t.Run("wrong credentials", func(t *testing.T) {
		fc := &fakeCookies{}
		rr := login(t, NewAuth(&fakeAuth{signInErr: auth.ErrInvalidCredentials}, fc, nil), loginRequest{Email: "x", Password: "y"})
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want 401", rr.Code)
		}
		if msg := errorMessage(t, rr); msg != "อีเมลหรือรหัสผ่านไม่ถูกต้อง" {
			t.Errorf("error: got %q", msg)
		}
		if fc.set != "" {
			t.Error("cookie set on failed login")
		}
	})

	t.Run("backend failure", func(t *testing.T) {
		rr := login(t, NewAuth(&fakeAuth{signInErr: errBackend}, &fakeCookies{}, nil), loginRequest{Email: "x", Password: "y"})
		if rr.Code != http.StatusInternalServerError {
			t.Errorf("status: got %d, want 500", rr.Code)
		}
	})

	t.Run("bad body", func(t *testing.T) {
		rr := login(t, NewAuth(&fakeAuth{}, &fakeCookies{}, nil), "not an object")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status: got %d, want 400", rr.Code)
		}
	})
}

func TestLogout(t *testing.T) {
	fa := &fakeAuth{}
	fc := &fakeCookies{}
	h := NewAuth(fa, fc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer tok-9")
	rr := httptest.NewRecorder()
	h.Logout(rr, req)

	if rr.Code != http.StatusOK || fa.signedOut != "tok-9" || !fc.cleared {
		t.Errorf("logout: status %d signedOut %q cleared %v", rr.Code, fa.signedOut, fc.cleared)
	}

	fa.signedOut = ""
	rr = httptest.NewRecorder()
	h.Logout(rr, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	if rr.Code != http.StatusOK || fa.signedOut != "" {
		t.Errorf("logout without session: status %d signedOut %q", rr.Code, fa.signedOut)
	}
}

func TestLogoutFollowsSignOutEvent(t *testing.T) {
	fa := &fakeAuth{}
	h := NewAuth(fa, &fakeCookies{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer tok-9")
	req = withSession(req, testSession())
	rr := httptest.NewRecorder()
	h.Logout(rr, req)

	if got := decode[map[string]string](t, rr)["state"]; got != "signed_out" {
		t.Errorf("state = %q, want signed_out", got)
	}
	for i, fn := range fa.subs {
		if fn != nil {
			t.Errorf("subscription %d left registered after logout", i)
		}
	}
}

func TestLogoutFailureKeepsSession(t *testing.T) {
	fa := &fakeAuth{signOutErr: errBackend}
	fc := &fakeCookies{}
	h := NewAuth(fa, fc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer tok-9")
	rr := httptest.NewRecorder()
	h.Logout(rr, withSession(req, testSession()))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rr.Code)
	}
	if fc.cleared {
		t.Error("cookie cleared although sign-out failed")
	}
}

// loaderFunc adapts a function to middleware.SessionLoader.
type loaderFunc func(context.Context, string) (*session.Data, error)

func (f loaderFunc) Session(ctx context.Context, token string) (*session.Data, error) {
	return f(ctx, token)
}

func TestSessionAndAdminPage(t *testing.T) {
	signedIn := testSession()
	tests := []struct {
		name      string
		token     string
		loader    loaderFunc
		wantState string
		wantLogin bool
		wantForm  bool
	}{
		{
			name:      "no token",
			loader:    func(context.Context, string) (*session.Data, error) { return nil, nil },
			wantState: "signed_out",
			wantLogin: true,
		},
		{
			name:      "expired token",
			token:     "old",
			loader:    func(context.Context, string) (*session.Data, error) { return nil, nil },
			wantState: "signed_out",
			wantLogin: true,
		},
		{
			name:      "valid token",
			token:     "tok",
			loader:    func(context.Context, string) (*session.Data, error) { return signedIn, nil },
			wantState: "signed_in",
			wantForm:  true,
		},
		{
			name:      "session store down",
			token:     "tok",
			loader:    func(context.Context, string) (*session.Data, error) { return nil, errBackend },
			wantState: "checking",
		},
	}

	h := NewAuth(&fakeAuth{}, &fakeCookies{}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serve := func(handler http.HandlerFunc, path string) *httptest.ResponseRecorder {
				req := httptest.NewRequest(http.MethodGet, path, nil)
				if tt.token != "" {
					req.Header.Set("Authorization", "Bearer "+tt.token)
				}
				rr := httptest.NewRecorder()
				middleware.LoadSession(tt.loader)(handler).ServeHTTP(rr, req)
				return rr
			}

			sess := decode[map[string]any](t, serve(h.Session, "/api/auth/session"))
			if sess["state"] != tt.wantState {
				t.Errorf("session state: got %v, want %s", sess["state"], tt.wantState)
			}

			admin := decode[auth.AdminPayload](t, serve(h.AdminPage, "/api/admin"))
			if admin.State != tt.wantState || admin.LoginRequired != tt.wantLogin || (len(admin.Form) > 0) != tt.wantForm {
				t.Errorf("admin payload: %+v", admin)
			}
			if tt.wantForm && (admin.Viewer == nil || admin.Viewer.Email != signedIn.Email) {
				t.Errorf("viewer: %+v", admin.Viewer)
			}
		})
	}
}

func TestTwoFA(t *testing.T) {
	fe := &fakeEnroller{}
	h := NewAuth(&fakeAuth{}, &fakeCookies{}, fe)
	sess := testSession()

	rr := httptest.NewRecorder()
	h.TwoFASetup(rr, withSession(httptest.NewRequest(http.MethodGet, "/api/auth/2fa/setup", nil), sess))
	if rr.Code != http.StatusOK {
		t.Fatalf("setup status: got %d", rr.Code)
	}
	if e := decode[auth.Enrolment](t, rr); e.Secret == "" || e.QRCode == "" || fe.began != sess.UserID {
		t.Errorf("enrolment: %+v", e)
	}

	rr = httptest.NewRecorder()
	h.TwoFASetup(rr, httptest.NewRequest(http.MethodGet, "/api/auth/2fa/setup", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("setup without session: got %d, want 401", rr.Code)
	}

	enable := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/2fa/enable", jsonBody(t, map[string]string{"code": " 123456 "}))
		rr := httptest.NewRecorder()
		h.TwoFAEnable(rr, withSession(req, sess))
		return rr
	}

	if rr := enable(); rr.Code != http.StatusOK {
		t.Errorf("enable: got %d, want 200", rr.Code)
	}

	fe.confirmErr = auth.ErrInvalidCode
	if rr := enable(); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("enable with wrong code: got %d, want 422", rr.Code)
	}

	fe.confirmErr = errBackend
	if rr := enable(); rr.Code != http.StatusInternalServerError {
		t.Errorf("enable with store failure: got %d, want 500", rr.Code)
	}
}
