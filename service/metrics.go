package service

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"

	exitwal "hotswap/infra/wal/exit"
)

// Collector exports reclamation and outbox state on scrape.
type Collector struct {
	svc *SettingsService

	epoch     *prometheus.Desc
	readers   *prometheus.Desc
	pinned    *prometheus.Desc
	pending   *prometheus.Desc
	reclaimed *prometheus.Desc
	version   *prometheus.Desc
	outbox    *prometheus.Desc
}

func NewCollector(svc *SettingsService) *Collector {
	return &Collector{
		svc:       svc,
		epoch:     prometheus.NewDesc("hotswap_epoch", "Current reclamation epoch.", nil, nil),
		readers:   prometheus.NewDesc("hotswap_readers", "Registered reader slots.", nil, nil),
		pinned:    prometheus.NewDesc("hotswap_pinned_readers", "Readers currently pinned.", nil, nil),
		pending:   prometheus.NewDesc("hotswap_retired_pending", "Retired documents waiting for reclamation.", nil, nil),
		reclaimed: prometheus.NewDesc("hotswap_reclaimed_total", "Documents reclaimed since start.", nil, nil),
		version:   prometheus.NewDesc("hotswap_document_version", "Version of the live document.", nil, nil),
		outbox:    prometheus.NewDesc("hotswap_outbox_records", "Outbox records by state.", []string{"state"}, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.epoch
	ch <- c.readers
	ch <- c.pinned
	ch <- c.pending
	ch <- c.reclaimed
	ch <- c.version
	ch <- c.outbox
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.svc.Stats()
	ch <- prometheus.MustNewConstMetric(c.epoch, prometheus.GaugeValue, float64(st.Epoch))
	ch <- prometheus.MustNewConstMetric(c.readers, prometheus.GaugeValue, float64(st.Readers))
	ch <- prometheus.MustNewConstMetric(c.pinned, prometheus.GaugeValue, float64(st.Pinned))
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(st.Pending))
	ch <- prometheus.MustNewConstMetric(c.reclaimed, prometheus.CounterValue, float64(st.Reclaimed))
	ch <- prometheus.MustNewConstMetric(c.version, prometheus.GaugeValue, float64(c.svc.Version()))

	if c.svc.outbox == nil {
		return
	}
	counts, err := c.svc.outbox.Counts()
	if err != nil {
		log.Printf("[metrics] outbox counts: %v", err)
		return
	}
	for _, s := range []exitwal.State{exitwal.StateNew, exitwal.StateSent, exitwal.StateAcked, exitwal.StateFailed} {
		ch <- prometheus.MustNewConstMetric(c.outbox, prometheus.GaugeValue, float64(counts[s]), s.String())
	}
}
