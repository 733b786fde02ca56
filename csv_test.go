package geomerge

import (
	"bytes"
	"io"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const blocksTestCSV = `network,geoname_id,registered_country_geoname_id,represented_country_geoname_id,is_anonymous_proxy,is_satellite_provider
198.51.100.0/24,6252001,,,0,0
203.0.113.0/24, ,2017370,,0,1
192.0.2.0/25,,,,1,0
`

var _ = Describe("Blocks reader", func() {
	It("Should read rows in order with optional ids left blank", func() {
		rows, err := ReadBlocks(strings.NewReader(blocksTestCSV))

		Expect(err).To(BeNil())
		Expect(rows).To(HaveLen(3))

		Expect(rows[0].Network).To(Equal("198.51.100.0/24"))
		Expect(rows[0].GeonameID).To(Equal("6252001"))
		Expect(rows[0].RegisteredCountryGeonameID).To(Equal(""))

		Expect(rows[1].Network).To(Equal("203.0.113.0/24"))
		Expect(rows[1].RegisteredCountryGeonameID).To(Equal("2017370"))

		Expect(rows[2].Network).To(Equal("192.0.2.0/25"))
		Expect(rows[2].GeonameID).To(Equal(""))
	})

	It("Should tolerate rows shorter than the header", func() {
		rows, err := ReadBlocks(strings.NewReader("network,geoname_id,registered_country_geoname_id\n10.0.0.0/8\n"))

		Expect(err).To(BeNil())
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].Network).To(Equal("10.0.0.0/8"))
		Expect(rows[0].GeonameID).To(Equal(""))
	})

	It("Should require the network column", func() {
		_, err := ReadBlocks(strings.NewReader("geoname_id,foo\n1,2\n"))

		Expect(err).ToNot(BeNil())
	})
})

var _ = Describe("Table writer", func() {
	rows := []MergedRow{
		{
			Timestamp: "01.02.2024 03:04:05",
			Network:   "198.51.100.0/24",
			StartIP:   "198.51.100.0",
			EndIP:     "198.51.100.255",
			From:      3325256704,
			To:        3325256959,
			Code:      "US",
			Name:      "United States",
		},
		{
			Timestamp: "01.02.2024 03:04:05",
			Network:   "192.0.2.0/25",
			StartIP:   "192.0.2.0",
			EndIP:     "192.0.2.127",
			From:      3221225984,
			To:        3221226111,
		},
	}

	It("Should emit the fixed column order with decimal columns", func() {
		var buf bytes.Buffer

		Expect(WriteTable(&buf, rows, true)).To(BeNil())

		Expect(buf.String()).To(Equal(
			"_last_changed,network,start_ip,end_ip,from,to,code,name\n" +
				"01.02.2024 03:04:05,198.51.100.0/24,198.51.100.0,198.51.100.255,3325256704,3325256959,US,United States\n" +
				"01.02.2024 03:04:05,192.0.2.0/25,192.0.2.0,192.0.2.127,3221225984,3221226111,,\n"))
	})

	It("Should omit the decimal columns when disabled", func() {
		var buf bytes.Buffer

		Expect(WriteTable(&buf, rows, false)).To(BeNil())

		Expect(buf.String()).To(Equal(
			"_last_changed,network,start_ip,end_ip,code,name\n" +
				"01.02.2024 03:04:05,198.51.100.0/24,198.51.100.0,198.51.100.255,US,United States\n" +
				"01.02.2024 03:04:05,192.0.2.0/25,192.0.2.0,192.0.2.127,,\n"))
	})
})

var _ = Describe("Input decoding", func() {
	It("Should pass utf-8 through untouched", func() {
		r, err := DecodeReader(strings.NewReader("abc"), "")

		Expect(err).To(BeNil())

		data, _ := io.ReadAll(r)

		Expect(string(data)).To(Equal("abc"))
	})

	It("Should decode windows-1251", func() {
		raw := []byte{0xD0, 0xEE, 0xF1, 0xF1, 0xE8, 0xFF}

		r, err := DecodeReader(bytes.NewReader(raw), "windows-1251")

		Expect(err).To(BeNil())

		data, _ := io.ReadAll(r)

		Expect(string(data)).To(Equal("Россия"))
	})

	It("Should reject unknown encodings", func() {
		_, err := DecodeReader(strings.NewReader(""), "koi8-r")

		Expect(err).ToNot(BeNil())
	})
})
