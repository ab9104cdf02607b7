package a

import "context"

type Tx interface {
	FindVariable(ctx context.Context, key string) error
	RefreshPointSnapshots(ctx context.Context, key string) error
}

type Store struct{}

func (Store) WithTx(ctx context.Context, fn func(tx Tx) error) error { return nil }

func (Store) FindVariable(ctx context.Context, key string) error { return nil }

type service struct {
	relationalDB Store
}

func (s *service) bad(ctx context.Context) error {
	return s.relationalDB.WithTx(ctx, func(tx Tx) error {
		if err := s.relationalDB.FindVariable(ctx, "tva_standard"); err != nil { // want "s.relationalDB.FindVariable called inside WithTx"
			return err
		}
		return tx.RefreshPointSnapshots(ctx, "tva_standard")
	})
}

func (s *service) good(ctx context.Context) error {
	if err := s.relationalDB.FindVariable(ctx, "tva_standard"); err != nil {
		return err
	}
	return s.relationalDB.WithTx(ctx, func(tx Tx) error {
		if err := tx.FindVariable(ctx, "tva_standard"); err != nil {
			return err
		}
		return tx.RefreshPointSnapshots(ctx, "tva_standard")
	})
}
