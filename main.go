package main

import (
	"bhive-server/booking"
	"bhive-server/config"
	"bhive-server/notify"
	"bhive-server/routes"
	"bhive-server/storage"
	"bhive-server/utils"

	"github.com/kataras/golog"
	"github.com/kataras/iris/v12"
)

type backend interface {
	booking.Store
	routes.RoomAdmin
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		golog.Fatalf("config: %v", err)
	}

	var store backend
	if cfg.DBDriver == "memory" {
		golog.Warn("using in-memory store, data is lost on restart")
		store = storage.NewMemoryStore()
	} else {
		db, err := storage.InitializeDB(cfg.DBDriver, cfg.DatabaseURL)
		if err != nil {
			golog.Fatalf("database: %v", err)
		}
		cache := storage.InitializeRedis(cfg.RedisURL, cfg.RoomCacheTTL)
		defer cache.Close()
		store = storage.NewGormStore(db, cache)
	}

	var media booking.MediaSource = storage.StoredMedia{}
	if cfg.CloudinaryCloudName != "" {
		cld, err := storage.NewCloudinaryMedia(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		if err != nil {
			golog.Warnf("cloudinary disabled: %v", err)
		} else {
			media = cld
		}
	}

	var events notify.Publisher = notify.LogPublisher{}
	if cfg.AMQPURL != "" {
		pub, err := notify.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			golog.Warnf("rabbitmq disabled: %v", err)
		} else {
			events = pub
		}
	}
	defer events.Close()

	engine := booking.NewResolver(store,
		booking.WithMedia(media),
		booking.WithLocation(cfg.Location),
		booking.WithPricing(booking.Pricing{ExcessGuestFee: cfg.ExcessGuestFee}),
	)

	app := newApp(
		&routes.ReservationHandler{Engine: engine, Events: events},
		&routes.RoomHandler{Rooms: store},
	)
	if err := app.Listen(":" + cfg.Port); err != nil {
		golog.Errorf("server stopped: %v", err)
	}
}

func newApp(reservations *routes.ReservationHandler, rooms *routes.RoomHandler) *iris.Application {
	app := iris.New()
	app.Validator = utils.NewValidator()

	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Headers", "Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})
	app.Use(iris.Compression)

	routes.Register(app, reservations, rooms)
	return app
}
