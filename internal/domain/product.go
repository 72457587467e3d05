package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

type Product struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID           string             `bson:"userId" json:"userId"`
	SellerID         string             `bson:"sellerId" json:"sellerId"`
	SellerName       string             `bson:"sellerName" json:"sellerName"`
	Name             string             `bson:"name" json:"name"`
	Description      string             `bson:"description" json:"description"`
	Brand            string             `bson:"brand" json:"brand"`
	Color            string             `bson:"color" json:"color"`
	Category         string             `bson:"category" json:"category"`
	Price            int64              `bson:"price" json:"price"`
	OfferPrice       int64              `bson:"offerPrice" json:"offerPrice"`
	ShippingFee      int64              `bson:"shippingFee" json:"shippingFee"`
	DeliveryCharge   int64              `bson:"deliveryCharge" json:"deliveryCharge"`
	Images           []string           `bson:"images" json:"images"`
	Reviews          []Review           `bson:"reviews" json:"reviews,omitempty"`
	AverageRating    float64            `bson:"averageRating" json:"averageRating"`
	Date             int64              `bson:"date" json:"date"`
	IsPopular        bool               `bson:"isPopular" json:"isPopular"`
	Stock            int64              `bson:"stock" json:"stock"`
	WarrantyDuration string             `bson:"warrantyDuration,omitempty" json:"warrantyDuration,omitempty"`
	ReturnPeriod     string             `bson:"returnPeriod,omitempty" json:"returnPeriod,omitempty"`
	DeliveryDate     string             `bson:"deliveryDate,omitempty" json:"deliveryDate,omitempty"`
}

type Review struct {
	UserID   string `bson:"userId" json:"userId"`
	UserName string `bson:"userName" json:"userName"`
	Rating   int    `bson:"rating" json:"rating"`
	Comment  string `bson:"comment" json:"comment"`
	Date     int64  `bson:"date" json:"date"`
}

// Seller returns the seller identity, falling back to the owning user for older records.
func (p Product) Seller() string {
	if p.SellerID != "" {
		return p.SellerID
	}

	return p.UserID
}

// UnitPrice is the price charged per unit: the offer price when it is set and cheaper.
func (p Product) UnitPrice() int64 {
	if p.OfferPrice > 0 && p.OfferPrice < p.Price {
		return p.OfferPrice
	}

	return p.Price
}
