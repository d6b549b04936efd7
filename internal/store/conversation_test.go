package store_test

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/voxnotes/voxnotes/internal/config"
	"github.com/voxnotes/voxnotes/internal/store"
	"github.com/voxnotes/voxnotes/internal/store/model"
)

const (
	insertConversationStm = "INSERT INTO conversations (id, user_id, status, created_at) VALUES ('%s', '%s', '%s', '%s');"
)

var _ = Describe("conversation store", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = store.NewStore(db, zap.S())
		gormdb = db

		Expect(s.InitialMigration()).To(BeNil())
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE from conversations;")
	})

	Context("list", func() {
		It("only returns the user's conversations", func() {
			Expect(gormdb.Exec(fmt.Sprintf(insertConversationStm, uuid.NewString(), "user-1", "pending", "2026-01-01 10:00:00")).Error).To(BeNil())
			Expect(gormdb.Exec(fmt.Sprintf(insertConversationStm, uuid.NewString(), "user-1", "done", "2026-01-01 11:00:00")).Error).To(BeNil())
			Expect(gormdb.Exec(fmt.Sprintf(insertConversationStm, uuid.NewString(), "user-2", "pending", "2026-01-01 12:00:00")).Error).To(BeNil())

			conversations, err := s.Conversation().List(context.TODO(), store.NewConversationQueryFilter().ByUserID("user-1"), store.NewConversationQueryOptions())
			Expect(err).To(BeNil())
			Expect(conversations).To(HaveLen(2))
		})

		It("sorts newest first when asked to", func() {
			oldest := uuid.NewString()
			newest := uuid.NewString()
			Expect(gormdb.Exec(fmt.Sprintf(insertConversationStm, oldest, "user-1", "pending", "2026-01-01 10:00:00")).Error).To(BeNil())
			Expect(gormdb.Exec(fmt.Sprintf(insertConversationStm, newest, "user-1", "pending", "2026-01-02 10:00:00")).Error).To(BeNil())

			conversations, err := s.Conversation().List(
				context.TODO(),
				store.NewConversationQueryFilter().ByUserID("user-1"),
				store.NewConversationQueryOptions().WithSortOrder(store.SortByCreatedTimeDesc),
			)
			Expect(err).To(BeNil())
			Expect(conversations).To(HaveLen(2))
			Expect(conversations[0].ID.String()).To(Equal(newest))
		})
	})

	Context("create and get", func() {
		It("creates a pending conversation", func() {
			conversation, err := s.Conversation().Create(context.TODO(), model.NewConversation("user-1"))
			Expect(err).To(BeNil())
			Expect(conversation.Status).To(Equal(string(model.ConversationStatusPending)))

			found, err := s.Conversation().Get(context.TODO(), conversation.ID)
			Expect(err).To(BeNil())
			Expect(found.UserID).To(Equal("user-1"))
		})

		It("returns not found for a missing conversation", func() {
			_, err := s.Conversation().Get(context.TODO(), uuid.New())
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})
	})

	Context("update", func() {
		It("only touches the selected fields", func() {
			id := uuid.NewString()
			Expect(gormdb.Exec(fmt.Sprintf(insertConversationStm, id, "user-1", "pending", "2026-01-01 10:00:00")).Error).To(BeNil())

			title := "Weekly sync"
			updated, err := s.Conversation().Update(context.TODO(), uuid.MustParse(id), store.ConversationUpdate{Title: &title})
			Expect(err).To(BeNil())
			Expect(*updated.Title).To(Equal("Weekly sync"))
			Expect(updated.Status).To(Equal("pending"))
		})

		It("updates the status", func() {
			id := uuid.NewString()
			Expect(gormdb.Exec(fmt.Sprintf(insertConversationStm, id, "user-1", "pending", "2026-01-01 10:00:00")).Error).To(BeNil())

			Expect(s.Conversation().UpdateStatus(context.TODO(), uuid.MustParse(id), model.ConversationStatusTranscribing)).To(BeNil())

			found, err := s.Conversation().Get(context.TODO(), uuid.MustParse(id))
			Expect(err).To(BeNil())
			Expect(found.Status).To(Equal(string(model.ConversationStatusTranscribing)))
		})

		It("fails for a missing conversation", func() {
			title := "nope"
			_, err := s.Conversation().Update(context.TODO(), uuid.New(), store.ConversationUpdate{Title: &title})
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})
	})

	Context("delete", func() {
		It("removes the conversation", func() {
			id := uuid.NewString()
			Expect(gormdb.Exec(fmt.Sprintf(insertConversationStm, id, "user-1", "pending", "2026-01-01 10:00:00")).Error).To(BeNil())

			Expect(s.Conversation().Delete(context.TODO(), uuid.MustParse(id))).To(BeNil())

			count := 0
			Expect(gormdb.Raw("SELECT COUNT(*) from conversations;").Scan(&count).Error).To(BeNil())
			Expect(count).To(Equal(0))
		})

		It("is a no-op for a missing conversation", func() {
			Expect(s.Conversation().Delete(context.TODO(), uuid.New())).To(BeNil())
		})
	})

	Context("transaction", func() {
		It("rolls back an insert", func() {
			ctx, err := s.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			_, err = s.Conversation().Create(ctx, model.NewConversation("user-1"))
			Expect(err).To(BeNil())

			_, err = store.Rollback(ctx)
			Expect(err).To(BeNil())

			count := 0
			Expect(gormdb.Raw("SELECT COUNT(*) from conversations;").Scan(&count).Error).To(BeNil())
			Expect(count).To(Equal(0))
		})

		It("commits an insert", func() {
			ctx, err := s.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			_, err = s.Conversation().Create(ctx, model.NewConversation("user-1"))
			Expect(err).To(BeNil())

			_, err = store.Commit(ctx)
			Expect(err).To(BeNil())

			count := 0
			Expect(gormdb.Raw("SELECT COUNT(*) from conversations;").Scan(&count).Error).To(BeNil())
			Expect(count).To(Equal(1))
		})
	})
})
