/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "entitykv"

var (
	descLoadCalls = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "entity", "load_calls_total"),
		"Load calls per entity.", []string{"entity"}, nil)
	descSaveCalls = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "entity", "save_calls_total"),
		"Save calls per entity.", []string{"entity"}, nil)
	descDeleteCalls = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "entity", "delete_calls_total"),
		"Delete calls per entity.", []string{"entity"}, nil)
	descRowsLoaded = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "entity", "rows_loaded_total"),
		"Rows returned by loads.", []string{"entity"}, nil)
	descRowsSaved = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "entity", "rows_saved_total"),
		"Rows written by saves.", []string{"entity"}, nil)
	descRowsDeleted = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "entity", "rows_deleted_total"),
		"Rows removed by deletes.", []string{"entity"}, nil)
	descIndexInserts = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "index", "inserts_total"),
		"Index entries added.", []string{"entity"}, nil)
	descIndexRemoves = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "index", "removes_total"),
		"Index entries removed.", []string{"entity"}, nil)
	descUniqueViolations = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "index", "unique_violations_total"),
		"Writes rejected by a unique index.", []string{"entity"}, nil)
	descStoreEntries = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "store", "entries"),
		"Entries per store at the last refresh.", []string{"store"}, nil)
	descStoreBytes = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "store", "bytes"),
		"Estimated bytes per store at the last refresh.", []string{"store"}, nil)
)

// Collector exports a Metrics snapshot to Prometheus on every scrape.
type Collector struct {
	m *Metrics
}

// NewCollector returns a collector over m.
func NewCollector(m *Metrics) *Collector {
	return &Collector{m: m}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		descLoadCalls, descSaveCalls, descDeleteCalls,
		descRowsLoaded, descRowsSaved, descRowsDeleted,
		descIndexInserts, descIndexRemoves, descUniqueViolations,
		descStoreEntries, descStoreBytes,
	} {
		ch <- d
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.m.Snapshot()
	for _, name := range snap.EntityNames() {
		e := snap.Entities[name]
		for _, v := range []struct {
			desc *prometheus.Desc
			val  uint64
		}{
			{descLoadCalls, e.LoadCalls},
			{descSaveCalls, e.SaveCalls},
			{descDeleteCalls, e.DeleteCalls},
			{descRowsLoaded, e.RowsLoaded},
			{descRowsSaved, e.RowsSaved},
			{descRowsDeleted, e.RowsDeleted},
			{descIndexInserts, e.IndexInserts},
			{descIndexRemoves, e.IndexRemoves},
			{descUniqueViolations, e.UniqueViolations},
		} {
			ch <- prometheus.MustNewConstMetric(v.desc, prometheus.CounterValue, float64(v.val), name)
		}
	}
	for _, name := range snap.StoreNames() {
		g := snap.Stores[name]
		ch <- prometheus.MustNewConstMetric(descStoreEntries, prometheus.GaugeValue, float64(g.Entries), name)
		ch <- prometheus.MustNewConstMetric(descStoreBytes, prometheus.GaugeValue, float64(g.Bytes), name)
	}
}
