package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/streadway/amqp"

	"github.com/sendkite/broadcast-backend/internal/controller"
	"github.com/sendkite/broadcast-backend/internal/db"
	"github.com/sendkite/broadcast-backend/internal/handler"
	"github.com/sendkite/broadcast-backend/internal/phone"
	"github.com/sendkite/broadcast-backend/internal/queue"
	"github.com/sendkite/broadcast-backend/internal/repository"
	"github.com/sendkite/broadcast-backend/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on OS environment variables")
	}

	database, err := db.Connect()
	if err != nil {
		log.Fatal("failed to connect to db:", err)
	}
	defer database.Close()

	contactRepo := &repository.ContactRepository{DB: database}
	channelRepo := &repository.ChannelRepository{DB: database}
	campaignRepo := &repository.CampaignRepository{DB: database}
	outboundRepo := &repository.OutboundMessageRepository{DB: database}

	publisher := newPublisher()

	norm := phone.NewNormalizer(os.Getenv("DEFAULT_COUNTRY_CODE"))
	draftService := service.NewDraftService(contactRepo, channelRepo, campaignRepo, publisher)
	importService := service.NewImportService(contactRepo, norm)

	// Without a broker the dispatch worker runs in-process.
	if q, ok := publisher.(*queue.InMemoryQueue); ok {
		dispatch := service.NewDispatchService(campaignRepo, outboundRepo, service.MockSender{})
		q.Subscribe(queue.TopicCampaignSubmissions, func(payload any) error {
			job, ok := payload.(queue.SubmissionJob)
			if !ok {
				return fmt.Errorf("unexpected payload %T", payload)
			}
			return dispatch.ProcessSubmission(context.Background(), job.CampaignID)
		})
	}

	draftController := &controller.DraftController{DraftService: draftService}
	apiHandler := &handler.Handler{
		ContactRepo:   contactRepo,
		ChannelRepo:   channelRepo,
		CampaignRepo:  campaignRepo,
		MessageRepo:   outboundRepo,
		ImportService: importService,
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	// Wizard routes
	r.Post("/drafts", draftController.CreateDraft)
	r.Post("/campaigns/{id}/edit", draftController.EditDraft)
	r.Route("/drafts/{id}", func(r chi.Router) {
		r.Get("/", draftController.GetDraft)
		r.Delete("/", draftController.DiscardDraft)
		r.Patch("/name", draftController.SetName)
		r.Put("/channel", draftController.SetChannel)
		r.Put("/audience/mode", draftController.SetAudienceMode)
		r.Put("/audience/numbers", draftController.SetNumbers)
		r.Post("/audience/toggle", draftController.ToggleNumber)
		r.Post("/audience/select-visible", draftController.SelectVisible)
		r.Delete("/audience", draftController.ClearAudience)
		r.Put("/message", draftController.SetMessage)
		r.Post("/templates", draftController.AddTemplate)
		r.Patch("/templates/{templateID}", draftController.UpdateTemplate)
		r.Delete("/templates/{templateID}", draftController.RemoveTemplate)
		r.Post("/attachments", draftController.AddAttachment)
		r.Delete("/attachments/{attachmentID}", draftController.RemoveAttachment)
		r.Put("/schedule", draftController.SetSchedule)
		r.Put("/settings", draftController.UpdateSettings)
		r.Post("/next", draftController.Next)
		r.Post("/prev", draftController.Prev)
		r.Post("/submit", draftController.Submit)
	})

	// Contact book and imports
	r.Get("/contacts", apiHandler.ListContacts)
	r.Post("/contacts", apiHandler.CreateContact)
	r.Get("/channels", apiHandler.ListChannels)
	r.Post("/imports", apiHandler.CreateImport)
	r.Post("/imports/{id}/run", apiHandler.RunImport)
	r.Get("/imports/{id}", apiHandler.GetImport)
	r.Delete("/imports/{id}", apiHandler.DeleteImport)

	// Campaign list
	r.Get("/campaigns", apiHandler.ListCampaigns)
	r.Get("/campaigns/{id}", apiHandler.GetCampaign)
	r.Get("/campaigns/{id}/stats", apiHandler.CampaignStats)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("server running on :" + port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}

// newPublisher connects to RabbitMQ when AMQP_URL is set, otherwise falls
// back to the in-process queue so the server runs standalone in development.
func newPublisher() queue.Publisher {
	url := os.Getenv("AMQP_URL")
	if url == "" {
		log.Println("AMQP_URL not set, using in-memory queue")
		return queue.NewInMemoryQueue()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		log.Println("failed to connect to RabbitMQ, using in-memory queue:", err)
		return queue.NewInMemoryQueue()
	}
	pub, err := queue.NewAMQPPublisher(conn)
	if err != nil {
		log.Println("failed to open AMQP channel, using in-memory queue:", err)
		return queue.NewInMemoryQueue()
	}
	return pub
}
