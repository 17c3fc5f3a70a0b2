package migrations

import (
	"context"

	"github.com/dpyhq/cryptobill/db/models"
	"github.com/uptrace/bun"
)

/* Tables are created from the current models, so later migrations that add or
drop columns have to use IfNotExists/IfExists to stay safe on fresh databases.

Invoices are owned by the billing frontend. Creating the table here keeps a
standalone deployment and the test database usable.
*/
func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		if _, err := db.NewCreateTable().Model((*models.Invoice)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().Model((*models.PaymentTransaction)(nil)).
			IfNotExists().
			ForeignKey(`("invoice_id") REFERENCES "invoices" ("id") ON DELETE CASCADE`).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().Model((*models.PollingLog)(nil)).
			IfNotExists().
			ForeignKey(`("invoice_id") REFERENCES "invoices" ("id") ON DELETE CASCADE`).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().Model((*models.AppConfig)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		for _, model := range []interface{}{
			(*models.PollingLog)(nil),
			(*models.PaymentTransaction)(nil),
			(*models.AppConfig)(nil),
			(*models.Invoice)(nil),
		} {
			if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}
