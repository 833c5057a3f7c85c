package searchconfig

import (
	"testing"

	"github.com/simpleflo/rdfusion/pkg/models"
)

func TestResolve_ListSubtype(t *testing.T) {
	r := New(DefaultLoaderRegistry())
	cfg := r.Resolve(models.SubtypeList, models.RankingSimple, models.QueryTypeSQL, nil)
	if !cfg.HasPrimary(models.SourceSQL) {
		t.Fatalf("expected SQL primary, got %+v", cfg.PrimarySources)
	}
	if cfg.ESMode != models.ESModeOff {
		t.Errorf("expected ES off, got %s", cfg.ESMode)
	}
}

func TestResolve_RankingSplitsOnRankingType(t *testing.T) {
	r := New(DefaultLoaderRegistry())

	simple := r.Resolve(models.SubtypeRanking, models.RankingSimple, models.QueryTypeHybrid, nil)
	if !simple.HasPrimary(models.SourceES) || !simple.HasPrimary(models.SourceVector) {
		t.Fatalf("expected ES+VECTOR primary for simple ranking, got %+v", simple.PrimarySources)
	}

	complex := r.Resolve(models.SubtypeRanking, models.RankingComplex, models.QueryTypeHybrid, nil)
	if !complex.UseLoader || complex.LoaderName != "RankingLoader" {
		t.Fatalf("expected RankingLoader wired for complex ranking, got %+v", complex)
	}
}

func TestResolve_EvalpEntityForcesSQLOnly(t *testing.T) {
	r := New(DefaultLoaderRegistry())
	cfg := r.Resolve(models.SubtypeConcept, models.RankingSimple, models.QueryTypeRAG, []string{"evalp_pref"})
	if len(cfg.PrimarySources) != 1 || cfg.PrimarySources[0] != models.SourceSQL {
		t.Fatalf("expected SQL-only for evalp entity, got %+v", cfg.PrimarySources)
	}
	if cfg.GraphRAGStrategy != models.GraphRAGNone {
		t.Errorf("expected graph strategy NONE, got %s", cfg.GraphRAGStrategy)
	}
}

func TestResolve_EquipEntitySwitchesPrimaries(t *testing.T) {
	r := New(DefaultLoaderRegistry())
	cfg := r.Resolve(models.SubtypeList, models.RankingSimple, models.QueryTypeSQL, []string{"equip"})
	if !cfg.HasPrimary(models.SourceES) || !cfg.HasPrimary(models.SourceVector) {
		t.Fatalf("expected ES+VECTOR primary for equip list, got %+v", cfg.PrimarySources)
	}
}

func TestResolve_LoaderExistenceCheckFallsThrough(t *testing.T) {
	r := New(NewLoaderRegistry())
	cfg := r.Resolve(models.SubtypeEvalpScore, models.RankingSimple, models.QueryTypeSQL, nil)
	if cfg.UseLoader {
		t.Fatalf("expected use_loader=false when loader is unregistered, got %+v", cfg)
	}
}

func TestResolve_SimpleQueryTypeClearsPrimaries(t *testing.T) {
	r := New(DefaultLoaderRegistry())
	cfg := r.Resolve(models.SubtypeList, models.RankingSimple, models.QueryTypeSimple, nil)
	if len(cfg.PrimarySources) != 0 {
		t.Fatalf("expected no primaries for simple query type, got %+v", cfg.PrimarySources)
	}
}

func TestResolve_HybridPrependsSQL(t *testing.T) {
	r := New(DefaultLoaderRegistry())
	cfg := r.Resolve(models.SubtypeConcept, models.RankingSimple, models.QueryTypeHybrid, nil)
	if len(cfg.PrimarySources) == 0 || cfg.PrimarySources[0] != models.SourceSQL {
		t.Fatalf("expected SQL prepended for hybrid, got %+v", cfg.PrimarySources)
	}
}

func TestResolve_UnknownSubtypeFallsBackToList(t *testing.T) {
	r := New(DefaultLoaderRegistry())
	cfg := r.Resolve(models.QuerySubtype("unknown"), models.RankingSimple, models.QueryTypeSQL, nil)
	if !cfg.HasPrimary(models.SourceSQL) {
		t.Fatalf("expected SQL fallback for unknown subtype, got %+v", cfg.PrimarySources)
	}
}
