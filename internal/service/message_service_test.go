package service_test

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/voxnotes/voxnotes/internal/config"
	"github.com/voxnotes/voxnotes/internal/service"
	"github.com/voxnotes/voxnotes/internal/storage"
	"github.com/voxnotes/voxnotes/internal/store"
	"github.com/voxnotes/voxnotes/internal/store/model"
)

var _ = Describe("message service", Ordered, func() {
	var (
		s       store.Store
		gormdb  *gorm.DB
		objects *memStorage
		gen     *fakeGenerator
		srv     *service.MessageService
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = store.NewStore(db, zap.S())
		gormdb = db
		Expect(s.InitialMigration()).To(BeNil())
	})

	BeforeEach(func() {
		objects = newMemStorage()
		gen = newFakeGenerator()
		srv = service.NewMessageService(s, objects, gen)
	})

	AfterEach(func() {
		gormdb.Exec("DELETE from messages;")
		gormdb.Exec("DELETE from conversations;")
	})

	AfterAll(func() {
		s.Close()
	})

	Context("create", func() {
		It("refuses while the pipeline is still running", func() {
			id := uuid.NewString()
			Expect(gormdb.Exec(fmt.Sprintf(insertConversationStm, id, "user-1", "transcribing")).Error).To(BeNil())

			_, err := srv.CreateMessage(context.TODO(), "user-1", uuid.MustParse(id), "what was decided?")
			Expect(err).To(BeAssignableToTypeOf(&service.ErrConversationNotReady{}))

			messages, err := s.Message().List(context.TODO(), uuid.MustParse(id))
			Expect(err).To(BeNil())
			Expect(messages).To(BeEmpty())
		})

		It("stores the question and the generated answer", func() {
			id := uuid.New()
			Expect(gormdb.Exec(fmt.Sprintf(insertConversationStm, id.String(), "user-1", "done")).Error).To(BeNil())
			Expect(objects.PutText(context.TODO(), storage.TranscriptKey(id), "the transcript")).To(BeNil())
			Expect(objects.PutText(context.TODO(), storage.NotesKey(id), "the notes")).To(BeNil())

			answer, err := srv.CreateMessage(context.TODO(), "user-1", id, "what was decided?")
			Expect(err).To(BeNil())
			Expect(answer.Role).To(Equal(string(model.MessageRoleAssistant)))
			Expect(answer.Text).To(Equal("the decision was made on tuesday"))

			messages, err := s.Message().List(context.TODO(), id)
			Expect(err).To(BeNil())
			Expect(messages).To(HaveLen(2))
			Expect(messages[0].Role).To(Equal(string(model.MessageRoleUser)))
			Expect(messages[0].Text).To(Equal("what was decided?"))
			Expect(messages[1].Role).To(Equal(string(model.MessageRoleAssistant)))
		})

		It("hands the previous turns to the model", func() {
			id := uuid.New()
			Expect(gormdb.Exec(fmt.Sprintf(insertConversationStm, id.String(), "user-1", "done")).Error).To(BeNil())
			_, err := s.Message().Create(context.TODO(), model.Message{ConversationID: id, Role: "user", Text: "earlier question"})
			Expect(err).To(BeNil())
			_, err = s.Message().Create(context.TODO(), model.Message{ConversationID: id, Role: "assistant", Text: "earlier answer"})
			Expect(err).To(BeNil())

			_, err = srv.CreateMessage(context.TODO(), "user-1", id, "follow up")
			Expect(err).To(BeNil())

			Expect(gen.lastHistory).To(HaveLen(2))
			Expect(gen.lastHistory[0].Text).To(Equal("earlier question"))
			Expect(gen.lastHistory[1].Text).To(Equal("earlier answer"))
		})

		It("accepts the legacy completed status as done", func() {
			id := uuid.NewString()
			Expect(gormdb.Exec(fmt.Sprintf(insertConversationStm, id, "user-1", "completed")).Error).To(BeNil())

			_, err := srv.CreateMessage(context.TODO(), "user-1", uuid.MustParse(id), "anything?")
			Expect(err).To(BeNil())
		})
	})

	Context("list", func() {
		It("refuses other users", func() {
			id := uuid.NewString()
			Expect(gormdb.Exec(fmt.Sprintf(insertConversationStm, id, "user-1", "done")).Error).To(BeNil())

			_, err := srv.ListMessages(context.TODO(), "user-2", uuid.MustParse(id))
			Expect(err).To(BeAssignableToTypeOf(&service.ErrForbidden{}))
		})
	})
})
