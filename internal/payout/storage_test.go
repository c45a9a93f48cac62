package payout

import (
	"errors"
	"io/fs"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(filepath.Join(tmpDir, "reports"))
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		var (
			name      string
			data      []byte
			savedName string
			err       error
		)

		BeforeEach(func() {
			name = "abc_evidence_pack.pdf"
			data = []byte("%PDF-1.3")
		})

		JustBeforeEach(func() {
			savedName, err = storage.Save(name, data)
		})

		When("saving succeeds", func() {
			It("should return the stored name", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(savedName).To(Equal(name))
			})

			It("should write the file inside the base directory", func() {
				Expect(filepath.Join(tmpDir, "reports", name)).To(BeAnExistingFile())
			})
		})

		DescribeTable("rejects names outside the base directory",
			func(bad string) {
				_, saveErr := storage.Save(bad, data)
				Expect(saveErr).To(MatchError(ErrInvalidName))
			},
			Entry("parent traversal", "../escape.pdf"),
			Entry("nested path", "sub/report.pdf"),
			Entry("empty", ""),
			Entry("dot", "."),
			Entry("dot dot", ".."),
		)
	})

	Describe("Get", func() {
		var (
			name string
			data []byte
			err  error
		)

		JustBeforeEach(func() {
			data, err = storage.Get(name)
		})

		When("the file exists", func() {
			BeforeEach(func() {
				name = "present.pdf"
				_, saveErr := storage.Save(name, []byte("content"))
				Expect(saveErr).NotTo(HaveOccurred())
			})

			It("should return the contents", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(string(data)).To(Equal("content"))
			})
		})

		When("the file does not exist", func() {
			BeforeEach(func() {
				name = "missing.pdf"
			})

			It("returns the error", func() {
				Expect(err).To(HaveOccurred())
				Expect(errors.Is(err, fs.ErrNotExist)).To(BeTrue())
			})
		})
	})

	Describe("Delete", func() {
		var err error

		BeforeEach(func() {
			_, saveErr := storage.Save("gone.pdf", []byte("content"))
			Expect(saveErr).NotTo(HaveOccurred())
		})

		JustBeforeEach(func() {
			err = storage.Delete("gone.pdf")
		})

		It("should remove the file", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(filepath.Join(tmpDir, "reports", "gone.pdf")).NotTo(BeAnExistingFile())
		})
	})
})
