package postgres_test

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rodolfodpk/go-jsonbench/pkg/jsonbench"
	"github.com/rodolfodpk/go-jsonbench/pkg/jsonbench/postgres"
)

var _ = Describe("Store", func() {
	BeforeEach(func() {
		// Fresh schema before each test
		Expect(store.ProvisionSchema(ctx)).To(Succeed())
	})

	Describe("NewStore", func() {
		It("rejects a nil pool", func() {
			_, err := postgres.NewStore(nil, logger)
			Expect(jsonbench.IsValidationError(err)).To(BeTrue())
			validationErr, ok := jsonbench.GetValidationError(err)
			Expect(ok).To(BeTrue())
			Expect(validationErr.Field).To(Equal("pool"))
		})

		It("reports its name", func() {
			Expect(store.Name()).To(Equal("postgres"))
		})
	})

	Describe("ProvisionSchema", func() {
		It("creates both tables with unique indexes and primary keys", func() {
			for _, table := range []string{postgres.TextTable, postgres.IndexedTable} {
				var indexes int
				err := pool.QueryRow(ctx,
					"SELECT count(*) FROM pg_indexes WHERE schemaname = 'public' AND tablename = $1", table,
				).Scan(&indexes)
				Expect(err).NotTo(HaveOccurred())
				// id unique index, key unique index, primary key index
				Expect(indexes).To(Equal(3))

				var constraint string
				err = pool.QueryRow(ctx,
					"SELECT conname FROM pg_constraint WHERE conrelid = $1::regclass AND contype = 'p'", table,
				).Scan(&constraint)
				Expect(err).NotTo(HaveOccurred())
				Expect(constraint).To(Equal(table + "_pk"))
			}
		})

		It("uses json and jsonb value columns", func() {
			for table, columnType := range map[string]string{
				postgres.TextTable:    "json",
				postgres.IndexedTable: "jsonb",
			} {
				var dataType string
				err := pool.QueryRow(ctx,
					"SELECT data_type FROM information_schema.columns WHERE table_name = $1 AND column_name = 'value'", table,
				).Scan(&dataType)
				Expect(err).NotTo(HaveOccurred())
				Expect(dataType).To(Equal(columnType))
			}
		})

		It("discards existing rows when run again", func() {
			Expect(store.Insert(ctx, jsonbench.RepresentationText, "k1", []byte(`{"a":1}`))).Error().NotTo(HaveOccurred())
			Expect(store.ProvisionSchema(ctx)).To(Succeed())

			stats, err := store.Stats(ctx)
			Expect(err).NotTo(HaveOccurred())
			for _, s := range stats {
				Expect(s.Rows).To(BeZero())
			}
		})
	})

	Describe("Insert and ReadFull", func() {
		It("round-trips a document in both representations", func() {
			doc := []byte(`{"a": 1, "b": {"c": [1, 2, 3]}}`)
			for _, rep := range jsonbench.Representations {
				Expect(store.Insert(ctx, rep, "k1", doc)).Error().NotTo(HaveOccurred())

				value, err := store.ReadFull(ctx, rep, 1)
				Expect(err).NotTo(HaveOccurred())
				Expect(value).To(MatchJSON(doc))
			}
		})

		It("keeps the json text verbatim", func() {
			doc := []byte(`{"b": 2,  "a": 1}`)
			Expect(store.Insert(ctx, jsonbench.RepresentationText, "k1", doc)).Error().NotTo(HaveOccurred())

			value, err := store.ReadFull(ctx, jsonbench.RepresentationText, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(value)).To(Equal(string(doc)))
		})

		It("stores top-level scalars", func() {
			Expect(store.Insert(ctx, jsonbench.RepresentationIndexed, "k1", []byte(`"text"`))).Error().NotTo(HaveOccurred())

			value, err := store.ReadFull(ctx, jsonbench.RepresentationIndexed, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(MatchJSON(`"text"`))
		})

		It("rejects malformed documents", func() {
			for _, rep := range jsonbench.Representations {
				_, err := store.Insert(ctx, rep, "broken", []byte(`{"a":`))
				Expect(err).To(HaveOccurred())
			}
		})

		It("rejects a duplicate logical key", func() {
			Expect(store.Insert(ctx, jsonbench.RepresentationIndexed, "k1", []byte(`{}`))).Error().NotTo(HaveOccurred())
			Expect(store.Insert(ctx, jsonbench.RepresentationIndexed, "k1", []byte(`{}`))).Error().To(HaveOccurred())
		})

		It("returns ErrRowNotFound for a missing id", func() {
			_, err := store.ReadFull(ctx, jsonbench.RepresentationText, 99)
			Expect(errors.Is(err, postgres.ErrRowNotFound)).To(BeTrue())
		})
	})

	Describe("ReadField", func() {
		BeforeEach(func() {
			for _, rep := range jsonbench.Representations {
				Expect(store.Insert(ctx, rep, "k1", []byte(`{"a":1,"b":{"c":2}}`))).Error().NotTo(HaveOccurred())
			}
		})

		It("extracts a top-level field", func() {
			for _, rep := range jsonbench.Representations {
				value, err := store.ReadField(ctx, rep, 1, "a")
				Expect(err).NotTo(HaveOccurred())
				Expect(value).To(MatchJSON(`1`))

				value, err = store.ReadField(ctx, rep, 1, "b")
				Expect(err).NotTo(HaveOccurred())
				Expect(value).To(MatchJSON(`{"c":2}`))
			}
		})

		It("returns nil for an absent field", func() {
			value, err := store.ReadField(ctx, jsonbench.RepresentationIndexed, 1, "missing")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(BeNil())
		})

		It("returns ErrRowNotFound for a missing id", func() {
			_, err := store.ReadField(ctx, jsonbench.RepresentationIndexed, 42, "a")
			Expect(errors.Is(err, postgres.ErrRowNotFound)).To(BeTrue())
		})
	})

	Describe("WriteField", func() {
		sentinel := []byte(jsonbench.DefaultSentinel)

		BeforeEach(func() {
			for _, rep := range jsonbench.Representations {
				Expect(store.Insert(ctx, rep, "k1", []byte(`{"a":1,"b":{"c":2}}`))).Error().NotTo(HaveOccurred())
			}
		})

		It("supports partial-write only for jsonb", func() {
			Expect(store.Supports(jsonbench.RepresentationIndexed, jsonbench.PhasePartialWrite)).To(BeTrue())
			Expect(store.Supports(jsonbench.RepresentationText, jsonbench.PhasePartialWrite)).To(BeFalse())
			for _, phase := range []jsonbench.Phase{jsonbench.PhaseInsert, jsonbench.PhaseFullRead, jsonbench.PhasePartialRead} {
				Expect(store.Supports(jsonbench.RepresentationText, phase)).To(BeTrue())
				Expect(store.Supports(jsonbench.RepresentationIndexed, phase)).To(BeTrue())
			}
		})

		It("replaces the field and leaves the others alone", func() {
			Expect(store.WriteField(ctx, jsonbench.RepresentationIndexed, 1, "a", sentinel)).To(Succeed())

			value, err := store.ReadFull(ctx, jsonbench.RepresentationIndexed, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(MatchJSON(`{"a":"jsonbench","b":{"c":2}}`))
		})

		It("is idempotent", func() {
			Expect(store.WriteField(ctx, jsonbench.RepresentationIndexed, 1, "b", sentinel)).To(Succeed())
			Expect(store.WriteField(ctx, jsonbench.RepresentationIndexed, 1, "b", sentinel)).To(Succeed())

			value, err := store.ReadField(ctx, jsonbench.RepresentationIndexed, 1, "b")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(MatchJSON(sentinel))
		})

		It("returns UnsupportedError for json", func() {
			err := store.WriteField(ctx, jsonbench.RepresentationText, 1, "a", sentinel)
			Expect(jsonbench.IsUnsupportedError(err)).To(BeTrue())

			value, err := store.ReadFull(ctx, jsonbench.RepresentationText, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(MatchJSON(`{"a":1,"b":{"c":2}}`))
		})

		It("returns ErrRowNotFound for a missing id", func() {
			err := store.WriteField(ctx, jsonbench.RepresentationIndexed, 7, "a", sentinel)
			Expect(errors.Is(err, postgres.ErrRowNotFound)).To(BeTrue())
		})
	})

	DescribeTable("stores and mutates documents in every query exec mode",
		func(mode pgx.QueryExecMode) {
			poolConfig, err := pgxpool.ParseConfig(dsn)
			Expect(err).NotTo(HaveOccurred())
			poolConfig.ConnConfig.DefaultQueryExecMode = mode

			modePool, err := pgxpool.NewWithConfig(ctx, poolConfig)
			Expect(err).NotTo(HaveOccurred())
			defer modePool.Close()

			modeStore, err := postgres.NewStore(modePool, logger)
			Expect(err).NotTo(HaveOccurred())

			for _, rep := range jsonbench.Representations {
				id, err := modeStore.Insert(ctx, rep, "k1", []byte(`{"a":1,"b":"two"}`))
				Expect(err).NotTo(HaveOccurred())
				Expect(id).To(Equal(int64(1)))

				value, err := modeStore.ReadFull(ctx, rep, id)
				Expect(err).NotTo(HaveOccurred())
				Expect(value).To(MatchJSON(`{"a":1,"b":"two"}`))
			}

			Expect(modeStore.WriteField(ctx, jsonbench.RepresentationIndexed, 1, "a", []byte(jsonbench.DefaultSentinel))).To(Succeed())
			value, err := modeStore.ReadField(ctx, jsonbench.RepresentationIndexed, 1, "a")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(MatchJSON(jsonbench.DefaultSentinel))
		},
		Entry("cache statement", pgx.QueryExecModeCacheStatement),
		Entry("cache describe", pgx.QueryExecModeCacheDescribe),
		Entry("describe exec", pgx.QueryExecModeDescribeExec),
		Entry("exec", pgx.QueryExecModeExec),
		Entry("simple protocol", pgx.QueryExecModeSimpleProtocol),
	)

	Describe("Stats and SharedKeys", func() {
		It("counts rows, keys and size per table", func() {
			Expect(store.Insert(ctx, jsonbench.RepresentationText, "k1", []byte(`{"a":1}`))).Error().NotTo(HaveOccurred())
			Expect(store.Insert(ctx, jsonbench.RepresentationText, "k2", []byte(`{"a":2}`))).Error().NotTo(HaveOccurred())
			Expect(store.Insert(ctx, jsonbench.RepresentationIndexed, "k1", []byte(`{"a":1}`))).Error().NotTo(HaveOccurred())

			stats, err := store.Stats(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(HaveLen(2))

			Expect(stats[0].Table).To(Equal(postgres.TextTable))
			Expect(stats[0].Rows).To(Equal(int64(2)))
			Expect(stats[0].DistinctKeys).To(Equal(int64(2)))
			Expect(stats[0].TotalBytes).To(BeNumerically(">", 0))

			Expect(stats[1].Table).To(Equal(postgres.IndexedTable))
			Expect(stats[1].Rows).To(Equal(int64(1)))

			shared, err := store.SharedKeys(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(shared).To(Equal(int64(1)))
		})
	})
})
