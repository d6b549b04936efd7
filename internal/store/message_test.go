package store_test

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/voxnotes/voxnotes/internal/config"
	"github.com/voxnotes/voxnotes/internal/store"
	"github.com/voxnotes/voxnotes/internal/store/model"
)

var _ = Describe("message store", Ordered, func() {
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
		gormdb.Exec("DELETE from messages;")
	})

	Context("list", func() {
		It("keeps the creation order, even within the same timestamp", func() {
			conversationID := uuid.New()
			for _, text := range []string{"first", "second", "third"} {
				_, err := s.Message().Create(context.TODO(), model.Message{
					ConversationID: conversationID,
					Role:           string(model.MessageRoleUser),
					Text:           text,
				})
				Expect(err).To(BeNil())
			}

			messages, err := s.Message().List(context.TODO(), conversationID)
			Expect(err).To(BeNil())
			Expect(messages).To(HaveLen(3))
			Expect(messages[0].Text).To(Equal("first"))
			Expect(messages[1].Text).To(Equal("second"))
			Expect(messages[2].Text).To(Equal("third"))
		})

		It("only returns the conversation's messages", func() {
			conversationID := uuid.New()
			otherID := uuid.New()

			_, err := s.Message().Create(context.TODO(), model.Message{ConversationID: conversationID, Role: "user", Text: "mine"})
			Expect(err).To(BeNil())
			_, err = s.Message().Create(context.TODO(), model.Message{ConversationID: otherID, Role: "user", Text: "other"})
			Expect(err).To(BeNil())

			messages, err := s.Message().List(context.TODO(), conversationID)
			Expect(err).To(BeNil())
			Expect(messages).To(HaveLen(1))
			Expect(messages[0].Text).To(Equal("mine"))
		})
	})

	Context("delete", func() {
		It("removes all messages of a conversation", func() {
			conversationID := uuid.New()
			otherID := uuid.New()

			_, err := s.Message().Create(context.TODO(), model.Message{ConversationID: conversationID, Role: "user", Text: "a"})
			Expect(err).To(BeNil())
			_, err = s.Message().Create(context.TODO(), model.Message{ConversationID: conversationID, Role: "assistant", Text: "b"})
			Expect(err).To(BeNil())
			_, err = s.Message().Create(context.TODO(), model.Message{ConversationID: otherID, Role: "user", Text: "c"})
			Expect(err).To(BeNil())

			Expect(s.Message().DeleteByConversation(context.TODO(), conversationID)).To(BeNil())

			count := 0
			Expect(gormdb.Raw("SELECT COUNT(*) from messages;").Scan(&count).Error).To(BeNil())
			Expect(count).To(Equal(1))
		})
	})
})
