package payout

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltAuditLog", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltAuditLog
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltAuditLog(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("Append", func() {
		var (
			entry *LogEntry
			err   error
		)

		BeforeEach(func() {
			entry = &LogEntry{
				Timestamp: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
				Event:     EventOCRScanComplete,
				Status:    StatusUnfairPenalty,
				Earnings:  1200,
			}
		})

		JustBeforeEach(func() {
			err = db.Append(entry)
		})

		When("appending succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should assign the first ID", func() {
				Expect(entry.ID).To(Equal(uint64(1)))
			})

			It("should store the entry", func() {
				entries, listErr := db.Recent(0)
				Expect(listErr).NotTo(HaveOccurred())
				Expect(entries).To(HaveLen(1))
				Expect(entries[0].Event).To(Equal(EventOCRScanComplete))
				Expect(entries[0].Status).To(Equal(StatusUnfairPenalty))
				Expect(entries[0].Earnings).To(Equal(1200.0))
				Expect(entries[0].Timestamp.Equal(entry.Timestamp)).To(BeTrue())
			})
		})

		When("entries already exist", func() {
			BeforeEach(func() {
				Expect(db.Append(&LogEntry{Event: EventShadowBanAudit})).To(Succeed())
				Expect(db.Append(&LogEntry{Event: EventShadowBanAudit})).To(Succeed())
			})

			It("should assign increasing IDs", func() {
				Expect(entry.ID).To(Equal(uint64(3)))
			})
		})
	})

	Describe("Recent", func() {
		var (
			limit   int
			entries []*LogEntry
			err     error
		)

		JustBeforeEach(func() {
			entries, err = db.Recent(limit)
		})

		When("the log is empty", func() {
			BeforeEach(func() {
				limit = 10
			})

			It("should return an empty, non-nil slice", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(entries).NotTo(BeNil())
				Expect(entries).To(BeEmpty())
			})
		})

		When("there are more entries than the limit", func() {
			BeforeEach(func() {
				limit = 2
				// More than 255 entries exercises multi-byte keys
				for i := 0; i < 300; i++ {
					Expect(db.Append(&LogEntry{Event: EventOCRScanComplete, Earnings: float64(i)})).To(Succeed())
				}
			})

			It("should return the newest entries first", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(entries).To(HaveLen(2))
				Expect(entries[0].ID).To(Equal(uint64(300)))
				Expect(entries[0].Earnings).To(Equal(299.0))
				Expect(entries[1].ID).To(Equal(uint64(299)))
			})
		})

		When("the limit is not positive", func() {
			BeforeEach(func() {
				limit = 0
				for i := 0; i < 3; i++ {
					Expect(db.Append(&LogEntry{Event: EventOCRScanComplete})).To(Succeed())
				}
			})

			It("should return all entries", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(entries).To(HaveLen(3))
				Expect(entries[2].ID).To(Equal(uint64(1)))
			})
		})
	})

	Describe("reopening", func() {
		It("should keep entries and continue the sequence", func() {
			Expect(db.Append(&LogEntry{Event: EventOCRScanComplete})).To(Succeed())
			Expect(db.Close()).To(Succeed())

			var err error
			db, err = NewBoltAuditLog(dbPath)
			Expect(err).NotTo(HaveOccurred())

			entry := &LogEntry{Event: EventShadowBanAudit}
			Expect(db.Append(entry)).To(Succeed())
			Expect(entry.ID).To(Equal(uint64(2)))

			entries, err := db.Recent(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(2))
		})
	})
})
