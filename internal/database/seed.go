package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// seedItem is a sample catalog entry inserted on an empty development database.
type seedItem struct {
	title, summary, content, category, date string
	tags                                    []string
}

var seedItems = []seedItem{
	{
		title:    "การปลูกข้าวแบบเปียกสลับแห้ง",
		summary:  "ลดการใช้น้ำในนาข้าวได้ถึง 30% โดยไม่กระทบผลผลิต",
		content:  "การปลูกข้าวแบบเปียกสลับแห้ง (AWD) คือการปล่อยให้น้ำในแปลงลดลงก่อนเติมน้ำใหม่\nช่วยประหยัดน้ำและลดก๊าซมีเทน",
		category: "Infographic",
		date:     "1 มกราคม 2568",
		tags:     []string{"ข้าว", "การจัดการน้ำ"},
	},
	{
		title:    "ปุ๋ยหมักจากเศษวัสดุเหลือใช้",
		summary:  "วิธีทำปุ๋ยหมักง่าย ๆ จากฟางข้าวและมูลสัตว์",
		content:  "ผสมฟางข้าว มูลสัตว์ และน้ำหมักชีวภาพในอัตราส่วน 3:1:1\nกลับกองทุก 7 วัน",
		category: "บทความ",
		date:     "5 มกราคม 2568",
		tags:     []string{"ดิน", "ปุ๋ย"},
	},
	{
		title:    "เซนเซอร์วัดความชื้นดินสำหรับฟาร์มอัจฉริยะ",
		summary:  "ใช้ IoT ควบคุมการให้น้ำอัตโนมัติตามความชื้นจริงของดิน",
		content:  "เซนเซอร์ส่งค่าความชื้นผ่านเครือข่ายไร้สายไปยังระบบควบคุมปั๊มน้ำ",
		category: "เทคโนโลยี",
		date:     "10 มกราคม 2568",
		tags:     []string{"IoT", "การจัดการน้ำ"},
	},
}

// Seed populates the database with initial development data.
// It creates a default admin user and a few sample items if the
// respective tables are empty.
func Seed(db *sql.DB) error {
	if err := seedAdmin(db); err != nil {
		return err
	}
	return seedCatalog(db)
}

func seedAdmin(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("users already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	// 2FA is not enabled; the admin may enrol from the admin area.
	_, err = db.Exec(`
		INSERT INTO users (email, password_hash, display_name, role, totp_enabled)
		VALUES ($1, $2, $3, $4, $5)
	`, "admin@kasetinfo.local", string(hash), "Admin", "admin", false)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", "admin@kasetinfo.local",
		"password", "admin",
	)
	return nil
}

func seedCatalog(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM items").Scan(&count); err != nil {
		return fmt.Errorf("seed check items: %w", err)
	}

	if count > 0 {
		slog.Info("catalog already seeded, skipping")
		return nil
	}

	// Staggered timestamps keep the newest-first order deterministic.
	for i, it := range seedItems {
		_, err := db.Exec(`
			INSERT INTO items (title, summary, content, display_category, tags, date, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW() - make_interval(days => $7))
		`, it.title, it.summary, it.content, it.category, it.tags, it.date, len(seedItems)-i)
		if err != nil {
			return fmt.Errorf("seed insert item %q: %w", it.title, err)
		}
	}

	slog.Info("database seeded with sample items", "count", len(seedItems))
	return nil
}
