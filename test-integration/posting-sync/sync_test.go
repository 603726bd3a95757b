package integration

import (
	"encoding/json"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stacklok/posting-sync/internal/config"
	"github.com/stacklok/posting-sync/internal/notification"
	"github.com/stacklok/posting-sync/internal/status"
	"github.com/stacklok/posting-sync/test-integration/posting-sync/helpers"
)

// neverSchedule keeps the cron schedule out of the way; cycles are triggered
const neverSchedule = "0 0 1 1 *"

var _ = Describe("Posting sync", func() {
	var (
		tempDir  string
		mock     *helpers.MockProvider
		server   *helpers.ServerTestHelper
		cfg      *config.Config
		keyword  = "golang"
		operator = "ops-1"
	)

	BeforeEach(func() {
		Expect(db.Reset(ctx)).To(Succeed())

		tempDir = createTempDir("posting-sync-test-")
		mock = helpers.NewMockProvider()

		dbCfg, err := helpers.DatabaseConfig(connStr, tempDir)
		Expect(err).NotTo(HaveOccurred())

		cfg = &config.Config{
			Provider: config.ProviderConfig{
				BaseURL:     mock.URL(),
				MaxAttempts: 1,
			},
			Sync: config.SyncConfig{
				Keywords:  []string{keyword},
				Schedule:  neverSchedule,
				Operators: []string{operator},
			},
			Lock:     config.LockConfig{Backend: config.LockBackendPostgres},
			Database: dbCfg,
			Push:     config.PushConfig{HeartbeatInterval: "200ms"},
		}

		server, err = helpers.NewServerTestHelper(ctx)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if server != nil {
			Expect(server.StopServer()).To(Succeed())
		}
		mock.Close()
		cleanupTempDir(tempDir)
	})

	start := func() {
		Expect(server.StartServer(cfg)).To(Succeed())
		server.WaitForServerReady(30 * time.Second)
	}

	// runCycle triggers a cycle and waits until this instance has finished it
	runCycle := func() {
		Eventually(server.TriggerSync, 10*time.Second, 100*time.Millisecond).
			Should(Equal(http.StatusAccepted))
		Eventually(func() bool {
			st, err := server.GetSyncStatus()
			return err == nil && !st.Running && st.LastCycle != nil
		}, 30*time.Second, 100*time.Millisecond).Should(BeTrue())
	}

	keywordStatus := func() *status.KeywordSyncStatus {
		st, err := server.GetSyncStatus()
		Expect(err).NotTo(HaveOccurred())
		for _, ks := range st.Keywords {
			if ks.Keyword == keyword {
				return ks
			}
		}
		return nil
	}

	Context("with a healthy provider", func() {
		BeforeEach(func() {
			mock.SetPostings(keyword,
				helpers.ProviderPosting{ID: "p-1", CompanyID: "acme", Title: "Go engineer", URL: "https://jobs/p-1"},
				helpers.ProviderPosting{ID: "p-2", CompanyID: "globex", Title: "Platform engineer"},
			)
		})

		It("should record a Failed status for configured keywords before the first cycle", func() {
			start()

			Eventually(keywordStatus, 10*time.Second, 100*time.Millisecond).ShouldNot(BeNil())
			Expect(keywordStatus().Phase).To(Equal(status.SyncPhaseFailed))
		})

		It("should store postings and report the keyword as complete", func() {
			start()
			runCycle()

			ks := keywordStatus()
			Expect(ks).NotTo(BeNil())
			Expect(ks.Phase).To(Equal(status.SyncPhaseComplete))
			Expect(ks.FetchedCount).To(Equal(2))
			Expect(ks.InsertedCount).To(Equal(2))

			st, err := server.GetSyncStatus()
			Expect(err).NotTo(HaveOccurred())
			Expect(st.LastCycle.Synced).To(Equal(1))
			Expect(st.LastCycle.Failed).To(BeZero())

			Expect(db.CountPostings(ctx, keyword)).To(Equal(2))
			Expect(mock.Requests(keyword)).To(Equal(1))
		})

		It("should push and persist POSTING_OPENED for watchers of the company", func() {
			Expect(db.AddWatcher(ctx, "member-1", "acme")).To(Succeed())
			start()

			stream, code, err := server.OpenEvents("member-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(code).To(Equal(http.StatusOK))
			defer stream.Close()

			runCycle()

			var event helpers.StreamEvent
			Eventually(stream.Events(), 10*time.Second).Should(Receive(&event))
			Expect(event.Type).To(Equal(string(notification.TypePostingOpened)))

			var opened notification.PostingOpened
			Expect(json.Unmarshal(event.Envelope.Data, &opened)).To(Succeed())
			Expect(opened.ExternalID).To(Equal("p-1"))
			Expect(opened.CompanyID).To(Equal("acme"))
			Expect(opened.Keyword).To(Equal(keyword))

			list, err := server.GetNotifications("member-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(list.Count).To(Equal(1))
			Expect(list.Notifications[0].Type).To(Equal(notification.TypePostingOpened))
			Expect(list.Notifications[0].IsRead).To(BeFalse())

			other, err := server.GetNotifications("member-2")
			Expect(err).NotTo(HaveOccurred())
			Expect(other.Notifications).To(BeEmpty())
		})

		It("should not notify again for postings it already stored", func() {
			Expect(db.AddWatcher(ctx, "member-1", "acme")).To(Succeed())
			start()

			runCycle()
			runCycle()

			list, err := server.GetNotifications("member-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(list.Count).To(Equal(1))
			Expect(db.CountPostings(ctx, keyword)).To(Equal(2))
			Expect(mock.Requests(keyword)).To(Equal(2))
		})

		It("should mark postings the provider stopped returning as stale", func() {
			start()
			runCycle()

			mock.SetPostings(keyword,
				helpers.ProviderPosting{ID: "p-1", CompanyID: "acme", Title: "Go engineer"},
			)
			runCycle()

			Expect(db.CountPostings(ctx, keyword)).To(Equal(2))
			Expect(db.CountStalePostings(ctx, keyword)).To(Equal(1))
		})
	})

	Context("with a failing provider", func() {
		BeforeEach(func() {
			mock.FailWith(keyword, http.StatusNotFound)
		})

		It("should report the keyword as failed and notify operators", func() {
			start()
			runCycle()

			ks := keywordStatus()
			Expect(ks).NotTo(BeNil())
			Expect(ks.Phase).To(Equal(status.SyncPhaseFailed))
			Expect(ks.Message).NotTo(BeEmpty())

			st, err := server.GetSyncStatus()
			Expect(err).NotTo(HaveOccurred())
			Expect(st.LastCycle.Failed).To(Equal(1))
			Expect(st.LastCycle.Errors).To(HaveLen(1))

			Eventually(func() int {
				list, err := server.GetNotifications(operator)
				if err != nil {
					return -1
				}
				return list.Count
			}, 10*time.Second, 100*time.Millisecond).Should(Equal(1))

			list, err := server.GetNotifications(operator)
			Expect(err).NotTo(HaveOccurred())
			Expect(list.Notifications[0].Type).To(Equal(notification.TypeProcessingError))
		})
	})

	Context("event stream", func() {
		It("should reject connections without a subscriber id", func() {
			start()

			stream, code, err := server.OpenEvents("")
			Expect(err).NotTo(HaveOccurred())
			Expect(stream).To(BeNil())
			Expect(code).To(Equal(http.StatusUnauthorized))
		})

		It("should send heartbeats to idle streams", func() {
			start()

			stream, code, err := server.OpenEvents("member-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(code).To(Equal(http.StatusOK))
			defer stream.Close()

			// Pings are comment frames and never surface as events
			Consistently(stream.Events(), 600*time.Millisecond).ShouldNot(Receive())
		})
	})
})
