package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"GroupChatAI/global"
	"GroupChatAI/logger"
	"GroupChatAI/middleware"
	midsec "GroupChatAI/middleware/security"
	"GroupChatAI/service/ai"
	"GroupChatAI/service/bus"
	"GroupChatAI/service/chat"
	"GroupChatAI/service/mail"
	"GroupChatAI/service/storage"
	"GroupChatAI/tools/security"

	chatmod "GroupChatAI/module/chat"
	chatsrv "GroupChatAI/module/chat/service"
	"GroupChatAI/module/credit"
	notifymod "GroupChatAI/module/notify"
	notifysrv "GroupChatAI/module/notify/service"
	"GroupChatAI/module/user"

	"github.com/gin-gonic/gin"
)

func main() {
	global.Load()
	global.ConfigIds()
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := storage.InitPG(ctx, global.App.DatabaseURL); err != nil {
		logger.Fatalf("postgres init: %v", err)
	}
	defer storage.ClosePG()

	if err := storage.InitRedis(storage.RedisConfig{
		Addr:     global.App.RedisAddr,
		Password: global.App.RedisPassword,
		DB:       global.App.RedisDB,
	}); err != nil {
		logger.Fatalf("redis init: %v", err)
	}

	nodeID := strconv.FormatInt(global.App.SnowflakeNode, 10)
	jwtOpts := global.JWTOptions()

	ws := chat.NewServer(chat.Conf{}, func(token string) (int64, error) {
		return security.Verify(jwtOpts, token)
	})
	ws.SetPresenceStore(storage.NewRedisPresence(nodeID))
	stopRefresh := ws.StartPresenceRefresher()
	defer stopRefresh()

	if global.App.NatsURL != "" {
		b, err := bus.Connect(global.App.NatsURL, nodeID, ws.Dispatcher())
		if err != nil {
			logger.Fatalf("nats connect: %v", err)
		}
		defer b.Close()
	}

	middleware.Auth = midsec.DefaultOptions(jwtOpts)

	notifyService := notifysrv.New(ws.Dispatcher())
	chatService := chatsrv.New(
		ws.Dispatcher(),
		notifyService,
		mail.NewSender(global.App.SMTPHost, global.App.SMTPPort,
			global.App.SMTPUsername, global.App.SMTPPassword, global.App.SMTPFrom),
		ai.NewClient(global.App.AIEndpoint, global.App.AIAPIKey),
		ai.Rates{
			GPT4:   global.App.GPT4CreditRate,
			GPT35:  global.App.GPT35CreditRate,
			Gemini: global.App.GeminiCreditRate,
		},
	)

	r := gin.New()
	r.Use(gin.Recovery())
	registerRoutes(r, ws, chatmod.NewHandler(chatService), notifymod.NewHandler(notifyService))

	srv := &http.Server{Addr: global.App.HTTPAddr, Handler: r}
	go func() {
		logger.Infof("listening on %s (node %s)", global.App.HTTPAddr, nodeID)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Errorf("http shutdown: %v", err)
	}
}

func registerRoutes(r *gin.Engine, ws *chat.Server, ch *chatmod.Handler, nh *notifymod.Handler) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": ws.Registry().NumConns()})
	})

	// realtime gateway; the token rides in the path, verified after upgrade
	r.GET("/ws/:token", ws.HandleWS)

	api := r.Group("/api/v1")

	middleware.POST(api, "/auth/register", user.HandlerRegister, middleware.RouteOpt{})
	middleware.POST(api, "/auth/login", user.HandlerLogin, middleware.RouteOpt{})
	middleware.GET(api, "/users/me", user.HandlerMe, middleware.RouteOpt{IsAuth: true})

	auth := middleware.RouteOpt{IsAuth: true}

	middleware.GET(api, "/users/:id/presence", user.HandlerPresence, auth)

	middleware.POST(api, "/groups", ch.CreateGroup, auth)
	middleware.GET(api, "/groups", ch.ListGroups, auth)
	middleware.GET(api, "/groups/:id", ch.GetGroup, auth)
	middleware.POST(api, "/groups/join", ch.JoinGroup, auth)
	middleware.GET(api, "/groups/:id/messages", ch.ListMessages, auth)
	middleware.POST(api, "/groups/:id/messages", ch.SendMessage, auth)
	middleware.POST(api, "/groups/:id/invitations", ch.CreateInvitation, auth)
	middleware.POST(api, "/invitations/accept", ch.AcceptInvitation, auth)

	middleware.GET(api, "/credits", credit.HandlerBalance, auth)
	middleware.GET(api, "/credits/transactions", credit.HandlerTransactions, auth)
	middleware.POST(api, "/credits/purchase", credit.HandlerPurchase, auth)

	middleware.GET(api, "/notifications", nh.List, auth)
	middleware.GET(api, "/notifications/counts", nh.Counts, auth)
	middleware.PUT(api, "/notifications/:id/read", nh.MarkRead, auth)
	middleware.PUT(api, "/notifications/read-all", nh.MarkAllRead, auth)
}
