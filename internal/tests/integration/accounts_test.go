//go:build integration

package integration_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/you/accountsvc/domain"
	"github.com/you/accountsvc/internal/infrastructure/repositories"
)

const workers = 8

// verifiedUser registers and completes an account for email.
func verifiedUser(ctx context.Context, email string) *domain.User {
	_, err := container.RegistrationSvc.Register(ctx, domain.RegisterRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     email,
		Password:  "pw123456",
		Role:      domain.RoleCustomer,
	})
	Expect(err).NotTo(HaveOccurred())

	user, err := container.RegistrationSvc.Complete(ctx, email)
	Expect(err).NotTo(HaveOccurred())
	return user
}

// concurrently runs fn on every worker at once and collects the errors.
func concurrently(fn func(i int) error) []error {
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, workers)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer GinkgoRecover()
			defer wg.Done()
			<-start
			errs[i] = fn(i)
		}(i)
	}
	close(start)
	wg.Wait()
	return errs
}

var _ = Describe("Account store on PostgreSQL", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("unique constraints", func() {
		It("maps unique violations to ErrDuplicateKey", func() {
			users := repositories.NewUserRepository(container.DB)
			first := &domain.User{Email: "dup@x.com", PasswordHash: "h", Role: domain.RoleCustomer}
			Expect(users.Create(ctx, first)).To(Succeed())

			err := users.Create(ctx, &domain.User{Email: "dup@x.com", PasswordHash: "h", Role: domain.RoleAdmin})
			Expect(errors.Is(err, domain.ErrDuplicateKey)).To(BeTrue(), "got %v", err)
			Expect(domain.KindOf(err)).To(Equal(domain.KindConflict))
		})

		It("rolls back session tokens when the session row is rejected", func() {
			user := verifiedUser(ctx, "rollback@x.com")
			sessions := repositories.NewSessionRepository(container.DB)

			_, err := container.Sessions.Establish(ctx, user)
			Expect(err).NotTo(HaveOccurred())

			var before int64
			container.DB.Model(&repositories.DBToken{}).Where("user_id = ?", user.ID).Count(&before)

			dup := &domain.Session{
				UserID:       user.ID,
				AccessToken:  domain.Token{Value: "rollback-access", UserID: user.ID, Type: domain.TokenAccess},
				RefreshToken: domain.Token{Value: "rollback-refresh", UserID: user.ID, Type: domain.TokenRefresh},
				Active:       true,
			}
			Expect(errors.Is(sessions.Create(ctx, dup), domain.ErrDuplicateKey)).To(BeTrue())

			var after int64
			container.DB.Model(&repositories.DBToken{}).Where("user_id = ?", user.ID).Count(&after)
			Expect(after).To(Equal(before))
		})
	})

	Describe("concurrent registration", func() {
		It("keeps exactly one pending registration per email", func() {
			errs := concurrently(func(int) error {
				_, err := container.RegistrationSvc.Register(ctx, domain.RegisterRequest{
					FirstName: "Race",
					LastName:  "Condition",
					Email:     "race@x.com",
					Password:  "pw123456",
					Role:      domain.RoleCustomer,
				})
				return err
			})

			succeeded := 0
			for _, err := range errs {
				if err == nil {
					succeeded++
					continue
				}
				Expect(errors.Is(err, domain.ErrPendingVerificationExists)).To(BeTrue(), "got %v", err)
			}
			Expect(succeeded).To(Equal(1))

			var pending int64
			container.DB.Model(&repositories.DBPendingUser{}).Where("email = ?", "race@x.com").Count(&pending)
			Expect(pending).To(Equal(int64(1)))
		})
	})

	Describe("concurrent login", func() {
		It("converges on one session per user", func() {
			verifiedUser(ctx, "login-race@x.com")

			results := make([]*domain.LoginResult, workers)
			errs := concurrently(func(i int) error {
				res, err := container.AuthSvc.Login(ctx, "login-race@x.com", "pw123456")
				results[i] = res
				return err
			})
			for i, err := range errs {
				Expect(err).NotTo(HaveOccurred(), fmt.Sprintf("worker %d", i))
			}

			user := results[0].User
			var sessions, tokens int64
			container.DB.Model(&repositories.DBSession{}).Where("user_id = ?", user.ID).Count(&sessions)
			container.DB.Model(&repositories.DBToken{}).
				Where("user_id = ? AND type IN ?", user.ID, []string{string(domain.TokenAccess), string(domain.TokenRefresh)}).
				Count(&tokens)
			Expect(sessions).To(Equal(int64(1)))
			Expect(tokens).To(Equal(int64(2)))

			// Only the last rotation survives; it must authenticate.
			stored, err := container.SessionRepo.FindByUserID(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			p, err := container.AuthSvc.Authenticate(ctx, "Bearer "+stored.AccessToken.Value)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.User.ID).To(Equal(user.ID))
		})
	})

	Describe("password reset throttle backed by Redis", func() {
		It("rejects a second request inside the window", func() {
			verifiedUser(ctx, "throttle@x.com")

			_, err := container.ResetSvc.RequestReset(ctx, "throttle@x.com")
			Expect(err).NotTo(HaveOccurred())

			_, err = container.ResetSvc.RequestReset(ctx, "throttle@x.com")
			var rl *domain.RateLimitError
			Expect(errors.As(err, &rl)).To(BeTrue(), "got %v", err)
			Expect(rl.RetryAfter).To(BeNumerically(">", 0))
			Expect(errors.Is(err, domain.ErrRateLimited)).To(BeTrue())

			redisServer.FastForward(container.Config.ResetThrottle)
			_, err = container.ResetSvc.RequestReset(ctx, "throttle@x.com")
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
