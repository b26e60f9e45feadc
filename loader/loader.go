// Package loader imports the Olist CSV files into the store collections the
// reports read, embedding order lines, payments and reviews into orders.
package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/Madhav-Gupta-28/olist-insights/metrics"
	"github.com/Madhav-Gupta-28/olist-insights/models"
	"go.uber.org/zap"
)

const DefaultBatchSize = 1000

type Options struct {
	BatchSize int
	// Checkpoint defaults to an in-memory one.
	Checkpoint *Checkpoint
	Logger     *zap.Logger
}

type Loader struct {
	dir       string
	w         Writer
	batchSize int
	cp        *Checkpoint
	logger    *zap.Logger
}

type document struct {
	id    string
	value interface{}
}

func New(dir string, w Writer, opts Options) *Loader {
	l := &Loader{dir: dir, w: w, batchSize: opts.BatchSize, cp: opts.Checkpoint, logger: opts.Logger}
	if l.batchSize <= 0 {
		l.batchSize = DefaultBatchSize
	}
	if l.cp == nil {
		l.cp, _ = LoadCheckpoint("")
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	return l
}

// Run loads every collection in models.Collections order. Documents recorded
// in the checkpoint are skipped.
func (l *Loader) Run(ctx context.Context) error {
	builders := map[string]func() ([]document, error){
		models.CollectionCustomers: l.customers,
		models.CollectionSellers:   l.sellers,
		models.CollectionProducts:  l.products,
		models.CollectionOrders:    l.orders,
	}
	for _, collection := range models.Collections {
		start := time.Now()
		docs, err := builders[collection]()
		if err != nil {
			return fmt.Errorf("prepare %s: %w", collection, err)
		}
		if err := l.insert(ctx, collection, docs); err != nil {
			return err
		}
		l.logger.Info("Collection loaded",
			zap.String("collection", collection),
			zap.Int("documents", l.cp.Count(collection)),
			zap.Duration("took", time.Since(start)))
	}
	return nil
}

func (l *Loader) insert(ctx context.Context, collection string, docs []document) error {
	var pending []document
	seen := make(map[string]struct{}, len(docs))
	batches := 0

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := make([]interface{}, len(pending))
		for i, d := range pending {
			batch[i] = d.value
		}
		if err := l.w.InsertMany(ctx, collection, batch); err != nil {
			for _, d := range pending[:insertedBefore(err)] {
				l.cp.Add(collection, d.id)
			}
			if serr := l.cp.Save(); serr != nil {
				l.logger.Error("Failed to save checkpoint", zap.Error(serr))
			}
			return fmt.Errorf("insert %s batch %d: %w", collection, batches+1, err)
		}
		for _, d := range pending {
			l.cp.Add(collection, d.id)
		}
		if err := l.cp.Save(); err != nil {
			return err
		}
		batches++
		metrics.LoadedDocuments.WithLabelValues(collection).Add(float64(len(pending)))
		l.logger.Debug("Inserted batch",
			zap.String("collection", collection),
			zap.Int("batch", batches),
			zap.Int("size", len(pending)))
		pending = pending[:0]
		return nil
	}

	skipped := 0
	for _, d := range docs {
		if _, dup := seen[d.id]; dup || l.cp.Done(collection, d.id) {
			skipped++
			continue
		}
		seen[d.id] = struct{}{}
		pending = append(pending, d)
		if len(pending) >= l.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	if skipped > 0 {
		l.logger.Info("Skipped documents already loaded",
			zap.String("collection", collection),
			zap.Int("skipped", skipped))
	}
	return nil
}

func (l *Loader) customers() ([]document, error) {
	f, err := readCSV(l.dir, CustomersFile, "customer_id", "customer_unique_id", "customer_city", "customer_state")
	if err != nil {
		return nil, err
	}
	docs := make([]document, 0, len(f.rows))
	for _, row := range f.rows {
		c := models.Customer{
			ID:                    f.get(row, "customer_id"),
			CustomerUniqueID:      f.get(row, "customer_unique_id"),
			CustomerZipCodePrefix: f.get(row, "customer_zip_code_prefix"),
			CustomerCity:          f.get(row, "customer_city"),
			CustomerState:         f.get(row, "customer_state"),
		}
		docs = append(docs, document{id: c.ID, value: c})
	}
	return docs, nil
}

func (l *Loader) sellers() ([]document, error) {
	f, err := readCSV(l.dir, SellersFile, "seller_id")
	if err != nil {
		return nil, err
	}
	docs := make([]document, 0, len(f.rows))
	for _, row := range f.rows {
		s := models.Seller{
			ID:                  f.get(row, "seller_id"),
			SellerZipCodePrefix: f.get(row, "seller_zip_code_prefix"),
			SellerCity:          f.get(row, "seller_city"),
			SellerState:         f.get(row, "seller_state"),
		}
		docs = append(docs, document{id: s.ID, value: s})
	}
	return docs, nil
}

func (l *Loader) products() ([]document, error) {
	tr, err := readCSV(l.dir, TranslationsFile, "product_category_name", "product_category_name_english")
	if err != nil {
		return nil, err
	}
	english := make(map[string]string, len(tr.rows))
	for _, row := range tr.rows {
		english[tr.get(row, "product_category_name")] = tr.get(row, "product_category_name_english")
	}

	f, err := readCSV(l.dir, ProductsFile, "product_id", "product_category_name")
	if err != nil {
		return nil, err
	}
	docs := make([]document, 0, len(f.rows))
	for _, row := range f.rows {
		category := f.get(row, "product_category_name")
		p := models.Product{
			ID:                  f.get(row, "product_id"),
			CategoryName:        optString(category),
			CategoryNameEnglish: english[category],
			NameLength:          optInt(f.get(row, "product_name_lenght")),
			DescriptionLength:   optInt(f.get(row, "product_description_lenght")),
			PhotosQty:           optInt(f.get(row, "product_photos_qty")),
			WeightG:             optFloat(f.get(row, "product_weight_g")),
			LengthCm:            optFloat(f.get(row, "product_length_cm")),
			HeightCm:            optFloat(f.get(row, "product_height_cm")),
			WidthCm:             optFloat(f.get(row, "product_width_cm")),
		}
		if p.CategoryNameEnglish == "" {
			p.CategoryNameEnglish = models.UnknownCategory
		}
		docs = append(docs, document{id: p.ID, value: p})
	}
	return docs, nil
}

func (l *Loader) orders() ([]document, error) {
	itemsFile, err := readCSV(l.dir, OrderItemsFile, "order_id", "product_id", "seller_id", "price", "freight_value")
	if err != nil {
		return nil, err
	}
	items := map[string][]models.OrderItem{}
	for _, row := range itemsFile.rows {
		id := itemsFile.get(row, "order_id")
		if id == "" {
			continue
		}
		items[id] = append(items[id], models.OrderItem{
			OrderItemID:       atoi(itemsFile.get(row, "order_item_id")),
			ProductID:         itemsFile.get(row, "product_id"),
			SellerID:          itemsFile.get(row, "seller_id"),
			ShippingLimitDate: optTime(itemsFile.get(row, "shipping_limit_date")),
			Price:             atof(itemsFile.get(row, "price")),
			FreightValue:      atof(itemsFile.get(row, "freight_value")),
		})
	}

	paymentsFile, err := readCSV(l.dir, PaymentsFile, "order_id", "payment_type", "payment_value")
	if err != nil {
		return nil, err
	}
	payments := map[string][]models.Payment{}
	for _, row := range paymentsFile.rows {
		id := paymentsFile.get(row, "order_id")
		if id == "" {
			continue
		}
		payments[id] = append(payments[id], models.Payment{
			PaymentSequential:   atoi(paymentsFile.get(row, "payment_sequential")),
			PaymentType:         paymentsFile.get(row, "payment_type"),
			PaymentInstallments: atoi(paymentsFile.get(row, "payment_installments")),
			PaymentValue:        atof(paymentsFile.get(row, "payment_value")),
		})
	}

	reviewsFile, err := readCSV(l.dir, ReviewsFile, "order_id", "review_score")
	if err != nil {
		return nil, err
	}
	reviews := map[string]*models.Review{}
	for _, row := range reviewsFile.rows {
		id := reviewsFile.get(row, "order_id")
		if _, ok := reviews[id]; ok || id == "" {
			// only the first review of an order is kept
			continue
		}
		reviews[id] = &models.Review{
			ReviewID:              reviewsFile.get(row, "review_id"),
			ReviewScore:           optInt(reviewsFile.get(row, "review_score")),
			ReviewCommentTitle:    optString(reviewsFile.get(row, "review_comment_title")),
			ReviewCommentMessage:  optString(reviewsFile.get(row, "review_comment_message")),
			ReviewCreationDate:    optTime(reviewsFile.get(row, "review_creation_date")),
			ReviewAnswerTimestamp: optTime(reviewsFile.get(row, "review_answer_timestamp")),
		}
	}

	f, err := readCSV(l.dir, OrdersFile, "order_id", "customer_id", "order_purchase_timestamp")
	if err != nil {
		return nil, err
	}
	docs := make([]document, 0, len(f.rows))
	for i, row := range f.rows {
		id := f.get(row, "order_id")
		purchased := optTime(f.get(row, "order_purchase_timestamp"))
		if purchased == nil {
			return nil, fmt.Errorf("%s line %d: order %s has no valid purchase timestamp", f.name, i+2, id)
		}
		o := models.Order{
			ID:                    id,
			CustomerID:            f.get(row, "customer_id"),
			Status:                models.OrderStatus(f.get(row, "order_status")),
			PurchaseTimestamp:     *purchased,
			ApprovedAt:            optTime(f.get(row, "order_approved_at")),
			DeliveredCarrierDate:  optTime(f.get(row, "order_delivered_carrier_date")),
			DeliveredCustomerDate: optTime(f.get(row, "order_delivered_customer_date")),
			EstimatedDeliveryDate: optTime(f.get(row, "order_estimated_delivery_date")),
			Items:                 items[id],
			Payments:              payments[id],
			Review:                reviews[id],
		}
		if o.Items == nil {
			o.Items = []models.OrderItem{}
		}
		if o.Payments == nil {
			o.Payments = []models.Payment{}
		}
		docs = append(docs, document{id: id, value: o})
	}
	return docs, nil
}
