package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"hither-backend/internal/database"
	"hither-backend/internal/handlers"
	"hither-backend/internal/middleware"
	"hither-backend/internal/services"
	"hither-backend/internal/websocket"
)

func main() {
	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("🚀 HITHER BACKEND SERVER STARTING")
	log.Println("═══════════════════════════════════════════════════════════════════")

	// Load .env file
	log.Println("📂 Loading environment variables...")
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  Warning: .env file not found, using environment variables from system")
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// Get database URL
	log.Println("🔍 Checking DATABASE_URL environment variable...")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: DATABASE_URL environment variable is required")
		log.Println("   Please set DATABASE_URL in Railway Variables or .env file")
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal("DATABASE_URL environment variable is required")
	}
	log.Println("✅ DATABASE_URL found")

	// Connect to database
	log.Println("🔌 Connecting to database...")
	db, err := database.Connect(dbURL)
	if err != nil {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: Database connection failed")
		log.Printf("   Error: %v", err)
		log.Println("   This is usually caused by:")
		log.Println("   1. Wrong DATABASE_URL format")
		log.Println("   2. PostgreSQL service is down")
		log.Println("   3. Network connectivity issue")
		log.Println("   4. Invalid credentials")
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal(err)
	}
	defer db.Close()
	log.Println("✅ Database connection established")

	// Run migrations
	log.Println("🔄 Running database migrations...")
	if err := database.Migrate(db); err != nil {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: Database migrations failed")
		log.Printf("   Error: %v", err)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal(err)
	}
	log.Println("✅ Database migrations completed")

	// Seed demo accounts (opt-in, for local development)
	if os.Getenv("SEED_DEMO") == "1" {
		log.Println("🌱 Seeding demo users...")
		if err := database.SeedDemoUsers(db); err != nil {
			log.Fatalf("❌ Demo user seeding failed: %v", err)
		}
		log.Println("✅ Demo users seeded")
	}

	// Find sessions live in Redis when configured, in memory otherwise
	var sessionStore database.SessionStore
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr != "" {
		redisDB, err := database.NewRedisDB(redisAddr, os.Getenv("REDIS_PASSWORD"), 0)
		if err != nil {
			log.Printf("⚠️  Failed to connect to Redis: %v (falling back to in-memory sessions)", err)
			sessionStore = database.NewMemorySessionStore()
		} else {
			defer redisDB.Close()
			sessionStore = redisDB
			log.Println("✅ Redis session store connected")
		}
	} else {
		sessionStore = database.NewMemorySessionStore()
		log.Println("⚠️  REDIS_ADDR not set, using in-memory session store")
	}

	// Initialize Firebase Cloud Messaging
	// Supports both file path and base64-encoded credentials (for Railway/cloud deployments)
	var fcmService *services.FCMService
	fcmCredsBase64 := os.Getenv("FIREBASE_CREDENTIALS_BASE64")

	if fcmCredsBase64 != "" {
		// Use base64-encoded credentials (Railway-friendly)
		fcmService, err = services.NewFCMServiceFromBase64(fcmCredsBase64)
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM from base64: %v (push notifications disabled)", err)
			fcmService = nil
		} else {
			log.Println("✅ Firebase Cloud Messaging initialized from base64 credentials")
		}
	} else {
		// Fall back to file path (local development)
		fcmCredentialsFile := os.Getenv("FIREBASE_CREDENTIALS_FILE")
		if fcmCredentialsFile == "" {
			fcmCredentialsFile = "./firebase-service-account.json"
		}

		fcmService, err = services.NewFCMService(fcmCredentialsFile)
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM from file: %v (push notifications disabled)", err)
			fcmService = nil
		} else {
			log.Println("✅ Firebase Cloud Messaging initialized from file")
		}
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()
	log.Println("✅ WebSocket hub started")

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Authentication routes (no auth required)
	r.Post("/api/auth/register", handlers.Register(db))
	r.Post("/api/auth/login", handlers.Login(db))

	// WebSocket endpoint (authentication handled in handler via query param)
	r.Get("/ws", websocket.HandleWebSocket(wsHub, db))

	// API routes (require authentication)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth)

		// Auth status endpoint
		r.Get("/auth/status", handlers.GetAuthStatus(db))

		// FCM token registration
		r.Post("/devices/fcm-token", handlers.RegisterFCMToken(db))

		// Group lifecycle
		r.Get("/groups", handlers.GetMyGroups(db))
		r.Post("/groups", handlers.CreateGroup(db))
		r.Post("/groups/join", handlers.JoinGroup(db, wsHub, fcmService))

		r.Route("/groups/{id}", func(r chi.Router) {
			r.Get("/", handlers.GetGroup(db))
			r.Post("/leave", handlers.LeaveGroup(db, wsHub))
			r.Get("/invite", handlers.GetInvite(db))
			r.Post("/invite/rotate", handlers.RotateInvite(db, wsHub))
			r.Patch("/members/me", handlers.UpdateMyProfile(db, wsHub))

			// Roster and location tracking
			r.Get("/members", handlers.GetMembers(db))
			r.Post("/location", handlers.UpdateLocation(db, wsHub))
			r.Get("/direction", handlers.GetDirection(db))

			// Command feed
			r.Get("/commands", handlers.GetCommands(db))
			r.Post("/commands", handlers.SendCommand(db, wsHub, fcmService))

			// Itinerary
			r.Get("/itinerary", handlers.GetItinerary(db))
			r.Post("/waypoints", handlers.AddWaypoint(db, wsHub))
			r.Put("/waypoints/order", handlers.ReorderWaypoints(db, wsHub))
			r.Post("/waypoints/{waypointID}/start", handlers.StartWaypoint(db, wsHub))
			r.Post("/waypoints/{waypointID}/stop", handlers.StopWaypoint(db, wsHub))
			r.Post("/waypoints/{waypointID}/complete", handlers.CompleteWaypoint(db, wsHub))
			r.Delete("/waypoints/{waypointID}", handlers.DeleteWaypoint(db, wsHub))

			// Proximity finding
			r.Post("/find", handlers.StartFind(db, sessionStore, wsHub, fcmService))
			r.Get("/find/{sessionID}", handlers.PollFind(db, sessionStore))
			r.Post("/find/{sessionID}/cancel", handlers.CancelFind(db, sessionStore))
			r.Post("/find/{sessionID}/complete", handlers.CompleteFind(db, sessionStore))
		})
	})

	// Get port
	log.Println("🔍 Checking PORT environment variable...")
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		log.Printf("⚠️  PORT not set, using default: %s", port)
	} else {
		log.Printf("✅ PORT found: %s", port)
	}

	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("✅ ALL INITIALIZATION COMPLETE")
	log.Printf("🚀 Server starting on http://localhost:%s", port)
	log.Println("🔌 Ready to accept requests!")
	log.Println("═══════════════════════════════════════════════════════════════════")

	// Start server
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: Server failed to start")
		log.Printf("   Error: %v", err)
		log.Printf("   Port: %s", port)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal(err)
	}
}
