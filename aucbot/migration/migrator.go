package migration

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/hyeworks/aucbot/aucbot/database/models"
)

// Migrator imports a legacy BSON export (one .bson dump file per
// collection) into the PostgreSQL schema.
type Migrator struct {
	pgDB      *bun.DB
	dataDir   string
	batchSize int

	stats MigrationStats

	// Optional: use pgx CopyFrom for fastest bulk inserts
	useCopy bool
	pool    *pgxpool.Pool
}

func NewMigrator(pgDB *bun.DB, dataDir string) *Migrator {
	return &Migrator{
		pgDB:      pgDB,
		dataDir:   dataDir,
		batchSize: 1000,
		stats: MigrationStats{
			Tables:    make(map[string]*TableStats),
			StartTime: time.Now(),
		},
	}
}

// SetBatchSize overrides the default batch size for inserts (useful for poolers/timeouts)
func (m *Migrator) SetBatchSize(size int) {
	if size > 0 {
		m.batchSize = size
	}
}

// SetUseCopy enables COPY FROM mode using pgx (fast path)
func (m *Migrator) SetUseCopy(v bool) { m.useCopy = v }

// UsePool sets the pgx pool for COPY operations
func (m *Migrator) UsePool(pool *pgxpool.Pool) { m.pool = pool }

// MigrateAll runs the full import in dependency order: users and cards
// before ownership, ownership before auctions, auctions before their
// transaction history.
func (m *Migrator) MigrateAll(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"users", m.MigrateUsers},
		{"cards", m.MigrateCards},
		{"usercards", m.MigrateUserCards},
		{"auctions", m.MigrateAuctions},
		{"transactions", m.MigrateTransactions},
	}

	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("migration step %s failed: %w", step.name, err)
		}
	}

	m.stats.EndTime = time.Now()
	m.logFinalStats()
	return nil
}

func (m *Migrator) MigrateUsers(ctx context.Context) error {
	filePath := filepath.Join(m.dataDir, "users.bson")
	m.initTableStats("users")

	var users []*models.User

	flush := func() error {
		if len(users) == 0 {
			return nil
		}
		if err := m.batchInsertUsers(ctx, users); err != nil {
			return err
		}
		users = users[:0]
		return nil
	}

	processDoc := func(docBytes []byte) error {
		var mu MongoUser
		if err := bson.Unmarshal(docBytes, &mu); err != nil {
			slog.Error("Failed to decode user BSON", "error", err)
			m.recordError("users")
			return nil // Skip invalid documents
		}
		m.recordProcessed("users")

		if mu.DiscordID == "" {
			m.recordSkipped("users")
			return nil
		}

		users = append(users, m.convertUser(mu))
		m.recordSuccessful("users")

		if len(users) >= m.batchSize {
			return flush()
		}
		return nil
	}

	if err := m.processBSONFile(ctx, filePath, processDoc); err != nil {
		return err
	}
	return flush()
}

func (m *Migrator) MigrateCards(ctx context.Context) error {
	filePath := filepath.Join(m.dataDir, "cards.bson")
	m.initTableStats("cards")

	var cards []*models.Card

	flush := func() error {
		if len(cards) == 0 {
			return nil
		}
		if err := m.batchInsertCards(ctx, cards); err != nil {
			return err
		}
		cards = cards[:0]
		return nil
	}

	processDoc := func(docBytes []byte) error {
		var mc MongoCard
		if err := bson.Unmarshal(docBytes, &mc); err != nil {
			slog.Error("Failed to decode card BSON", "error", err)
			m.recordError("cards")
			return nil
		}
		m.recordProcessed("cards")

		cards = append(cards, m.convertCard(mc))
		m.recordSuccessful("cards")

		if len(cards) >= m.batchSize {
			return flush()
		}
		return nil
	}

	if err := m.processBSONFile(ctx, filePath, processDoc); err != nil {
		return err
	}
	return flush()
}

func (m *Migrator) MigrateUserCards(ctx context.Context) error {
	filePath := filepath.Join(m.dataDir, "usercards.bson")
	m.initTableStats("usercards")

	var userCards []*models.UserCard

	flush := func() error {
		if len(userCards) == 0 {
			return nil
		}
		if err := m.batchInsertUserCards(ctx, userCards); err != nil {
			return err
		}
		userCards = userCards[:0]
		return nil
	}

	processDoc := func(docBytes []byte) error {
		var muc MongoUserCard
		if err := bson.Unmarshal(docBytes, &muc); err != nil {
			slog.Error("Failed to decode user card BSON", "error", err)
			m.recordError("usercards")
			return nil
		}
		m.recordProcessed("usercards")

		// Null card ids and empty stacks exist in legacy dumps.
		if muc.CardID == nil || muc.Amount <= 0 {
			m.recordSkipped("usercards")
			return nil
		}

		userCards = append(userCards, m.convertUserCard(muc))
		m.recordSuccessful("usercards")

		if len(userCards) >= m.batchSize {
			return flush()
		}
		return nil
	}

	if err := m.processBSONFile(ctx, filePath, processDoc); err != nil {
		return err
	}
	return flush()
}

func (m *Migrator) MigrateAuctions(ctx context.Context) error {
	filePath := filepath.Join(m.dataDir, "auctions.bson")
	m.initTableStats("auctions")

	var auctions []*models.Auction

	flush := func() error {
		if len(auctions) == 0 {
			return nil
		}
		if err := m.batchInsertAuctions(ctx, auctions); err != nil {
			return err
		}
		auctions = auctions[:0]
		return nil
	}

	processDoc := func(docBytes []byte) error {
		var ma MongoAuction
		if err := bson.Unmarshal(docBytes, &ma); err != nil {
			slog.Error("Failed to decode auction BSON", "error", err)
			m.recordError("auctions")
			return nil
		}
		m.recordProcessed("auctions")

		if ma.AuctionID == "" || ma.Author == "" {
			m.recordSkipped("auctions")
			return nil
		}

		auctions = append(auctions, m.convertAuction(ma))
		m.recordSuccessful("auctions")

		if len(auctions) >= m.batchSize {
			return flush()
		}
		return nil
	}

	if err := m.processBSONFile(ctx, filePath, processDoc); err != nil {
		return err
	}
	return flush()
}

func (m *Migrator) MigrateTransactions(ctx context.Context) error {
	filePath := filepath.Join(m.dataDir, "transactions.bson")
	m.initTableStats("transactions")

	var transactions []*models.Transaction

	flush := func() error {
		if len(transactions) == 0 {
			return nil
		}
		if err := m.batchInsertTransactions(ctx, transactions); err != nil {
			return err
		}
		transactions = transactions[:0]
		return nil
	}

	processDoc := func(docBytes []byte) error {
		var mt MongoTransaction
		if err := bson.Unmarshal(docBytes, &mt); err != nil {
			slog.Error("Failed to decode transaction BSON", "error", err)
			m.recordError("transactions")
			return nil
		}
		m.recordProcessed("transactions")

		transactions = append(transactions, m.convertTransaction(mt))
		m.recordSuccessful("transactions")

		if len(transactions) >= m.batchSize {
			return flush()
		}
		return nil
	}

	if err := m.processBSONFile(ctx, filePath, processDoc); err != nil {
		return err
	}
	return flush()
}

// processBSONFile streams raw BSON documents out of a mongodump file. Each
// document is a little-endian int32 length followed by the body; the length
// includes its own 4 bytes.
func (m *Migrator) processBSONFile(ctx context.Context, filePath string, processDoc func([]byte) error) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		slog.Info("BSON file not found, skipping", slog.String("path", filePath))
		return nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open BSON file %s: %w", filePath, err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}
	fileSize := fileInfo.Size()
	if fileSize == 0 {
		slog.Info("BSON file is empty, skipping", slog.String("path", filePath))
		return nil
	}

	reader := bufio.NewReader(file)
	docCount := 0
	bytesRead := int64(0)

	for bytesRead < fileSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		lengthBytes := make([]byte, 4)
		n, err := io.ReadFull(reader, lengthBytes)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read document length at byte %d: %w", bytesRead, err)
		}
		bytesRead += int64(n)

		length := int32(binary.LittleEndian.Uint32(lengthBytes))
		if length <= 4 || length > 16*1024*1024 { // Sanity check: 4 bytes minimum, 16MB maximum
			return fmt.Errorf("invalid document length: %d at byte position %d", length, bytesRead-4)
		}

		docBytes := make([]byte, length-4)
		n, err = io.ReadFull(reader, docBytes)
		if err != nil {
			return fmt.Errorf("failed to read document bytes at byte %d: %w", bytesRead, err)
		}
		bytesRead += int64(n)

		fullDocBytes := append(lengthBytes, docBytes...)

		if err := processDoc(fullDocBytes); err != nil {
			return err
		}
		docCount++

		if docCount%1000 == 0 {
			slog.Info("Migration progress",
				slog.String("path", filePath),
				slog.Int("documents", docCount))
		}
	}

	slog.Info("Completed BSON file",
		slog.String("path", filePath),
		slog.Int("documents", docCount))
	return nil
}

func (m *Migrator) batchInsertUsers(ctx context.Context, users []*models.User) error {
	_, err := m.pgDB.NewInsert().
		Model(&users).
		On("CONFLICT (discord_id) DO UPDATE").
		Set("username = EXCLUDED.username").
		Set("balance = EXCLUDED.balance").
		Set("hero = EXCLUDED.hero").
		Set("hero_changed = EXCLUDED.hero_changed").
		Set("effects = EXCLUDED.effects").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (m *Migrator) batchInsertCards(ctx context.Context, cards []*models.Card) error {
	_, err := m.pgDB.NewInsert().
		Model(&cards).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("level = EXCLUDED.level").
		Set("col_id = EXCLUDED.col_id").
		Set("tags = EXCLUDED.tags").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (m *Migrator) batchInsertUserCards(ctx context.Context, userCards []*models.UserCard) error {
	if m.useCopy && m.pool != nil {
		conn, err := m.pool.Acquire(ctx)
		if err == nil {
			defer conn.Release()
			rows := make([][]any, 0, len(userCards))
			for _, uc := range userCards {
				rows = append(rows, []any{uc.UserID, uc.CardID, uc.Amount, uc.Favorite, uc.Obtained, uc.CreatedAt, uc.UpdatedAt})
			}
			cols := []string{"user_id", "card_id", "amount", "favorite", "obtained", "created_at", "updated_at"}
			if _, err = conn.Conn().CopyFrom(ctx, pgx.Identifier{"user_cards"}, cols, pgx.CopyFromRows(rows)); err == nil {
				return nil
			}
		}
	}
	_, err := m.pgDB.NewInsert().
		Model(&userCards).
		On("CONFLICT (user_id, card_id) DO UPDATE").
		Set("amount = EXCLUDED.amount").
		Set("favorite = EXCLUDED.favorite").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (m *Migrator) batchInsertAuctions(ctx context.Context, auctions []*models.Auction) error {
	if m.useCopy && m.pool != nil {
		conn, err := m.pool.Acquire(ctx)
		if err == nil {
			defer conn.Release()
			rows := make([][]any, 0, len(auctions))
			for _, a := range auctions {
				rows = append(rows, []any{a.AuctionID, a.CardID, a.SellerID, a.Price, a.LastBidderID, a.HideBid, a.Date, a.TimeShift, a.Finished, a.CreatedAt, a.UpdatedAt})
			}
			cols := []string{"auction_id", "card_id", "seller_id", "price", "last_bidder_id", "hide_bid", "date", "time_shift", "finished", "created_at", "updated_at"}
			if _, err = conn.Conn().CopyFrom(ctx, pgx.Identifier{"auctions"}, cols, pgx.CopyFromRows(rows)); err == nil {
				return nil
			}
		}
	}
	_, err := m.pgDB.NewInsert().
		Model(&auctions).
		On("CONFLICT (auction_id) DO UPDATE").
		Set("price = EXCLUDED.price").
		Set("last_bidder_id = EXCLUDED.last_bidder_id").
		Set("finished = EXCLUDED.finished").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (m *Migrator) batchInsertTransactions(ctx context.Context, transactions []*models.Transaction) error {
	_, err := m.pgDB.NewInsert().
		Model(&transactions).
		Exec(ctx)
	return err
}

func (m *Migrator) logFinalStats() {
	total := 0
	for name, ts := range m.stats.Tables {
		slog.Info("Migration table summary",
			slog.String("table", name),
			slog.Int("processed", ts.Processed),
			slog.Int("successful", ts.Successful),
			slog.Int("skipped", ts.Skipped),
			slog.Int("errors", ts.Errors))
		total += ts.Processed
	}
	slog.Info("Migration finished",
		slog.Int("total_processed", total),
		slog.Duration("took", m.stats.EndTime.Sub(m.stats.StartTime)))
}

func (m *Migrator) initTableStats(tableName string) {
	m.stats.Tables[tableName] = &TableStats{TableName: tableName}
}

func (m *Migrator) recordProcessed(tableName string) {
	if ts := m.stats.Tables[tableName]; ts != nil {
		ts.Processed++
		m.stats.TotalProcessed++
	}
}

func (m *Migrator) recordSuccessful(tableName string) {
	if ts := m.stats.Tables[tableName]; ts != nil {
		ts.Successful++
	}
}

func (m *Migrator) recordSkipped(tableName string) {
	if ts := m.stats.Tables[tableName]; ts != nil {
		ts.Skipped++
		m.stats.TotalSkipped++
	}
}

func (m *Migrator) recordError(tableName string) {
	if ts := m.stats.Tables[tableName]; ts != nil {
		ts.Errors++
		m.stats.TotalErrors++
	}
}
